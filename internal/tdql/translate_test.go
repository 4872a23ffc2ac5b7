package tdql

import "testing"

func TestTranslate(t *testing.T) {
	tests := []struct {
		name  string
		tdql  string
		graph string
		want  string
	}{
		{
			name:  "select star from digitaltwins",
			tdql:  "SELECT * FROM DIGITALTWINS",
			graph: "g",
			want:  "MATCH (T:Twin) RETURN *",
		},
		{
			name:  "select row alias",
			tdql:  "SELECT T FROM DIGITALTWINS T",
			graph: "g",
			want:  "MATCH (T:Twin) RETURN T",
		},
		{
			name:  "select star from relationships",
			tdql:  "SELECT * FROM RELATIONSHIPS",
			graph: "g",
			want:  "MATCH (:Twin)-[R]->(:Twin) RETURN *",
		},
		{
			name:  "count",
			tdql:  "SELECT COUNT() FROM DIGITALTWINS",
			graph: "g",
			want:  "MATCH (T:Twin) RETURN COUNT(*)",
		},
		{
			name:  "top with bracket property path and limit",
			tdql:  "SELECT TOP(1) T FROM DIGITALTWINS T WHERE T.$metadata.$model = 'dtmi:x;1'",
			graph: "g",
			want:  "MATCH (T:Twin) WHERE T['$metadata']['$model'] = 'dtmi:x;1' RETURN T LIMIT 1",
		},
		{
			name:  "is_of_model default alias",
			tdql:  "SELECT * FROM DIGITALTWINS WHERE IS_OF_MODEL('dtmi:x;1')",
			graph: "g",
			want:  "MATCH (T:Twin) WHERE g.is_of_model(T,'dtmi:x;1') RETURN *",
		},
		{
			name:  "is_of_model exact",
			tdql:  "SELECT * FROM DIGITALTWINS WHERE IS_OF_MODEL('dtmi:x;1', exact)",
			graph: "g",
			want:  "MATCH (T:Twin) WHERE g.is_of_model(T,'dtmi:x;1',true) RETURN *",
		},
		{
			name:  "join related",
			tdql:  "SELECT B, R FROM DIGITALTWINS DT JOIN B RELATED DT.has R WHERE DT.$dtId = 'root'",
			graph: "g",
			want:  "MATCH (DT:Twin)-[R:has]->(B:Twin) WHERE DT['$dtId'] = 'root' RETURN B, R",
		},
		{
			name:  "not-equal rewrite",
			tdql:  "SELECT * FROM DIGITALTWINS WHERE T.status != 'ok'",
			graph: "g",
			want:  "MATCH (T:Twin) WHERE NOT (T.status = 'ok') RETURN *",
		},
		{
			name:  "is_number",
			tdql:  "SELECT * FROM DIGITALTWINS WHERE IS_NUMBER(T.count)",
			graph: "g",
			want:  "MATCH (T:Twin) WHERE ((toFloat(T.count) IS NOT NULL OR toInteger(T.count) IS NOT NULL) AND NOT (toString(T.count) = T.count)) RETURN *",
		},
		{
			name:  "starts_with and contains",
			tdql:  "SELECT * FROM DIGITALTWINS WHERE STARTS_WITH(T.name, 'a') AND CONTAINS(T.name, 'b')",
			graph: "g",
			want:  "MATCH (T:Twin) WHERE (STARTS_WITH(T.name,'a') AND T.name CONTAINS 'b') RETURN *",
		},
		{
			name:  "case insensitive keywords normalized",
			tdql:  "select * from digitaltwins",
			graph: "g",
			want:  "MATCH (T:Twin) RETURN *",
		},
		{
			name:  "bare selector bound to implicit alias",
			tdql:  "SELECT $dtId, name FROM DIGITALTWINS",
			graph: "g",
			want:  "MATCH (T:Twin) RETURN T['$dtId'], T.name",
		},
		{
			name:  "raw match injects twin labels",
			tdql:  "SELECT * FROM DIGITALTWINS MATCH (a)-[r]->(b)",
			graph: "g",
			want:  "MATCH (a:Twin)-[r]->(b:Twin) RETURN *",
		},
		{
			name:  "pipe relationship rewritten with or predicate",
			tdql:  "SELECT * FROM DIGITALTWINS MATCH (a)-[r:rel1|rel2]->(b)",
			graph: "g",
			want:  "MATCH (a:Twin)-[r]->(b:Twin) WHERE (label(r) = 'rel1' OR label(r) = 'rel2') RETURN *",
		},
		{
			name:  "select as alias",
			tdql:  "SELECT T.name AS label FROM DIGITALTWINS T",
			graph: "g",
			want:  "MATCH (T:Twin) RETURN T.name AS label",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Translate(tc.tdql, tc.graph)
			if err != nil {
				t.Fatalf("Translate(%q) returned error: %v", tc.tdql, err)
			}
			if got != tc.want {
				t.Fatalf("Translate(%q):\n got:  %s\n want: %s", tc.tdql, got, tc.want)
			}
		})
	}
}

func TestHasVariableLengthEdge(t *testing.T) {
	tests := []struct {
		name string
		pgql string
		want bool
	}{
		{"no edge", "MATCH (T:Twin) RETURN *", false},
		{"star edge", "MATCH (a)-[r*]->(b) RETURN *", true},
		{"bounded range", "MATCH (a)-[r*1..3]->(b) RETURN *", true},
		{"typed variable length", "MATCH (a)-[r:has*]->(b) RETURN *", true},
		{"bare star", "MATCH (a)-[*]->(b) RETURN *", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := HasVariableLengthEdge(tc.pgql); got != tc.want {
				t.Fatalf("HasVariableLengthEdge(%q) = %v, want %v", tc.pgql, got, tc.want)
			}
		})
	}
}
