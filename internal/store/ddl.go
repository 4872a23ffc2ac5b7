package store

import "fmt"

// isOfModelFunctionSQL defines the store-side is_of_model(twin_id, dtmi,
// exact) helper, implemented as a plpgsql function over the model id and
// `bases` array stored per twin in the twin_models side-table, per spec
// §4.2's subtype test: non-exact returns true when the twin's own model
// matches dtmi or dtmi is present in that model's bases; exact only checks
// equality. Grounded on the expected speedup spec §4.2 calls out
// ("proportional to inheritance depth") versus a recursive walk, achieved
// here via a primary-key lookup plus an array-membership check instead of
// traversing `_extends` edges per call.
func isOfModelFunctionSQL(graph, jobsSchema string) string {
	return fmt.Sprintf(`
CREATE OR REPLACE FUNCTION %[1]s.is_of_model(p_twin_id text, p_dtmi text, p_exact boolean DEFAULT false)
RETURNS boolean AS $$
DECLARE
	v_model text;
	v_bases text[];
BEGIN
	SELECT metadata_model, bases INTO v_model, v_bases
	FROM %[2]s.twin_models
	WHERE twin_id = p_twin_id;

	IF v_model IS NULL THEN
		RETURN false;
	END IF;
	IF v_model = p_dtmi THEN
		RETURN true;
	END IF;
	IF p_exact THEN
		RETURN false;
	END IF;
	RETURN p_dtmi = ANY(v_bases);
END;
$$ LANGUAGE plpgsql STABLE;
`, graph, jobsSchema)
}

// isOfModelOldFunctionSQL defines the reference recursive implementation,
// retained under an _old suffix exactly as spec §4.2 requires ("the old
// implementation is retained under an _old suffix for benchmarking"). It
// walks model_extends (the relational mirror of the graph's _extends
// edges, populated by internal/catalog on model create) rather than
// consulting the materialized bases array, exploring every ancestor
// reachable through every parent — not just the first one found — so
// multi-parent/diamond inheritance (spec §8 scenario 6) is answered
// correctly.
func isOfModelOldFunctionSQL(graph, jobsSchema string) string {
	return fmt.Sprintf(`
CREATE OR REPLACE FUNCTION %[1]s.is_of_model_old(p_twin_id text, p_dtmi text, p_exact boolean DEFAULT false)
RETURNS boolean AS $$
DECLARE
	v_model text;
	v_found boolean;
BEGIN
	SELECT metadata_model INTO v_model
	FROM %[2]s.twin_models
	WHERE twin_id = p_twin_id;

	IF v_model IS NULL THEN
		RETURN false;
	END IF;
	IF v_model = p_dtmi THEN
		RETURN true;
	END IF;
	IF p_exact THEN
		RETURN false;
	END IF;

	WITH RECURSIVE ancestors(dtmi) AS (
		SELECT parent_dtmi FROM %[2]s.model_extends WHERE child_dtmi = v_model
		UNION
		SELECT e.parent_dtmi
		FROM %[2]s.model_extends e
		JOIN ancestors a ON e.child_dtmi = a.dtmi
	)
	SELECT EXISTS (SELECT 1 FROM ancestors WHERE dtmi = p_dtmi) INTO v_found;

	RETURN v_found;
END;
$$ LANGUAGE plpgsql STABLE;
`, graph, jobsSchema)
}

// jobsTablesSQL creates the job_records, job_locks, and delete_checkpoints
// tables in the graph's dedicated jobs schema (spec §3 JobRecord/JobLock/
// DeleteCheckpoint entities), plus twin_models and model_extends, the
// relational side-tables is_of_model(_old) query against so the subtype
// test doesn't have to round-trip through a Cypher MATCH on every twin
// read.
func jobsTablesSQL(schema string) string {
	return fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %[1]s.job_records (
	id                    text PRIMARY KEY,
	job_type              text NOT NULL,
	status                text NOT NULL,
	created_at            timestamptz NOT NULL DEFAULT now(),
	last_action_at        timestamptz NOT NULL DEFAULT now(),
	finished_at           timestamptz,
	purge_at              timestamptz,
	models_created        bigint NOT NULL DEFAULT 0,
	models_deleted        bigint NOT NULL DEFAULT 0,
	twins_created         bigint NOT NULL DEFAULT 0,
	twins_deleted         bigint NOT NULL DEFAULT 0,
	relationships_created bigint NOT NULL DEFAULT 0,
	relationships_deleted bigint NOT NULL DEFAULT 0,
	error_count           bigint NOT NULL DEFAULT 0,
	configuration         jsonb NOT NULL DEFAULT '{}'::jsonb,
	errors                jsonb NOT NULL DEFAULT '{}'::jsonb
);

CREATE TABLE IF NOT EXISTS %[1]s.job_locks (
	job_id            text PRIMARY KEY,
	owner_instance_id text NOT NULL,
	acquired_at       timestamptz NOT NULL,
	heartbeat_at      timestamptz NOT NULL,
	ttl_seconds       integer NOT NULL
);

CREATE TABLE IF NOT EXISTS %[1]s.delete_checkpoints (
	job_id          text PRIMARY KEY,
	current_section text NOT NULL,
	relationships_done boolean NOT NULL DEFAULT false,
	twins_done         boolean NOT NULL DEFAULT false,
	models_done        boolean NOT NULL DEFAULT false,
	relationships_deleted bigint NOT NULL DEFAULT 0,
	twins_deleted         bigint NOT NULL DEFAULT 0,
	models_deleted        bigint NOT NULL DEFAULT 0,
	last_updated    timestamptz NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS %[1]s.twin_models (
	twin_id        text PRIMARY KEY,
	metadata_model text NOT NULL,
	bases          text[] NOT NULL DEFAULT '{}'
);

CREATE TABLE IF NOT EXISTS %[1]s.model_extends (
	child_dtmi  text NOT NULL,
	parent_dtmi text NOT NULL,
	PRIMARY KEY (child_dtmi, parent_dtmi)
);

CREATE TABLE IF NOT EXISTS %[1]s.model_sequence (
	name    text PRIMARY KEY,
	counter bigint NOT NULL DEFAULT 0
);
`, schema)
}
