package database

import "gorm.io/gorm"

// The denormalized search table and its maintenance triggers live outside
// gorm's migrations: the tags text[] column and the tsvector have no model
// mapping, and trigger bodies are easier to review as plain SQL. The whole
// script is idempotent and runs on every startup.
const searchIndexDDL = `
CREATE TABLE IF NOT EXISTS document_search_index (
    document_id        uuid PRIMARY KEY,
    document_type_id   uuid,
    document_type_name text,
    owner_type         varchar(8)  NOT NULL DEFAULT 'user',
    owner_id           uuid,
    lang               varchar(8)  NOT NULL DEFAULT 'english',
    title              text,
    tags               text[],
    custom_fields_text text,
    search_vector      tsvector,
    last_updated       timestamptz NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_dsi_search_vector
    ON document_search_index USING gin (search_vector);
CREATE INDEX IF NOT EXISTS idx_dsi_tags
    ON document_search_index USING gin (tags);
CREATE INDEX IF NOT EXISTS idx_dsi_owner
    ON document_search_index (owner_type, owner_id);

-- Resolves the owning principal of a node by walking up to the subtree
-- root that carries the ownership row.
CREATE OR REPLACE FUNCTION dsi_node_owner(p_node_id uuid,
                                          OUT o_type varchar,
                                          OUT o_id uuid)
AS $$
BEGIN
    SELECT ow.owner_type, ow.owner_id INTO o_type, o_id
    FROM ownerships ow
    JOIN (
        WITH RECURSIVE chain AS (
            SELECT id, parent_id, 0 AS depth FROM nodes WHERE id = p_node_id
            UNION ALL
            SELECT n.id, n.parent_id, c.depth + 1
            FROM nodes n JOIN chain c ON n.id = c.parent_id
        )
        SELECT id, depth FROM chain
    ) ch ON ow.resource_id = ch.id AND ow.resource_type = 'node'
    ORDER BY ch.depth
    LIMIT 1;
END;
$$ LANGUAGE plpgsql STABLE;

-- Upserts the index row for one document from the canonical tables.
CREATE OR REPLACE FUNCTION dsi_refresh(p_doc_id uuid) RETURNS void AS $$
DECLARE
    v_title  text;
    v_lang   varchar(8);
    v_type_id uuid;
    v_type_name text;
    v_tags   text[];
    v_cf     text;
    v_owner_type varchar;
    v_owner_id uuid;
    v_config regconfig;
BEGIN
    SELECT n.title, COALESCE(NULLIF(n.lang, ''), 'english'), d.document_type_id
    INTO v_title, v_lang, v_type_id
    FROM nodes n
    JOIN documents d ON d.node_id = n.id
    WHERE n.id = p_doc_id AND n.deleted_at IS NULL;

    IF NOT FOUND THEN
        DELETE FROM document_search_index WHERE document_id = p_doc_id;
        RETURN;
    END IF;

    SELECT dt.name INTO v_type_name FROM document_types dt WHERE dt.id = v_type_id;

    SELECT COALESCE(array_agg(t.name ORDER BY t.name), '{}')
    INTO v_tags
    FROM nodes_tags nt JOIN tags t ON t.id = nt.tag_id
    WHERE nt.node_id = p_doc_id AND t.deleted_at IS NULL;

    SELECT string_agg(cfv.value_text, ' ')
    INTO v_cf
    FROM custom_field_values cfv
    WHERE cfv.document_id = p_doc_id AND cfv.value_text IS NOT NULL;

    SELECT o_type, o_id INTO v_owner_type, v_owner_id FROM dsi_node_owner(p_doc_id);

    BEGIN
        v_config := v_lang::regconfig;
    EXCEPTION WHEN OTHERS THEN
        v_config := 'english'::regconfig;
    END;

    INSERT INTO document_search_index AS dsi (
        document_id, document_type_id, document_type_name,
        owner_type, owner_id, lang, title, tags, custom_fields_text,
        search_vector, last_updated
    ) VALUES (
        p_doc_id, v_type_id, v_type_name,
        COALESCE(v_owner_type, 'user'), v_owner_id, v_lang, v_title, v_tags, v_cf,
        setweight(to_tsvector(v_config, COALESCE(v_title, '')), 'A') ||
        setweight(to_tsvector(v_config, COALESCE(v_type_name, '')), 'B') ||
        setweight(to_tsvector(v_config, COALESCE(array_to_string(v_tags, ' '), '')), 'C') ||
        setweight(to_tsvector(v_config, COALESCE(v_cf, '')), 'D'),
        now()
    )
    ON CONFLICT (document_id) DO UPDATE SET
        document_type_id   = EXCLUDED.document_type_id,
        document_type_name = EXCLUDED.document_type_name,
        owner_type         = EXCLUDED.owner_type,
        owner_id           = EXCLUDED.owner_id,
        lang               = EXCLUDED.lang,
        title              = EXCLUDED.title,
        tags               = EXCLUDED.tags,
        custom_fields_text = EXCLUDED.custom_fields_text,
        search_vector      = EXCLUDED.search_vector,
        last_updated       = now();
END;
$$ LANGUAGE plpgsql;

CREATE OR REPLACE FUNCTION dsi_on_document() RETURNS trigger AS $$
BEGIN
    PERFORM dsi_refresh(COALESCE(NEW.node_id, OLD.node_id));
    RETURN NULL;
END;
$$ LANGUAGE plpgsql;

CREATE OR REPLACE FUNCTION dsi_on_node() RETURNS trigger AS $$
BEGIN
    IF COALESCE(NEW.ctype, OLD.ctype) = 'document' THEN
        PERFORM dsi_refresh(COALESCE(NEW.id, OLD.id));
    END IF;
    RETURN NULL;
END;
$$ LANGUAGE plpgsql;

CREATE OR REPLACE FUNCTION dsi_on_nodes_tags() RETURNS trigger AS $$
BEGIN
    IF EXISTS (SELECT 1 FROM documents d
               WHERE d.node_id = COALESCE(NEW.node_id, OLD.node_id)) THEN
        PERFORM dsi_refresh(COALESCE(NEW.node_id, OLD.node_id));
    END IF;
    RETURN NULL;
END;
$$ LANGUAGE plpgsql;

CREATE OR REPLACE FUNCTION dsi_on_cfv() RETURNS trigger AS $$
BEGIN
    PERFORM dsi_refresh(COALESCE(NEW.document_id, OLD.document_id));
    RETURN NULL;
END;
$$ LANGUAGE plpgsql;

-- Tag and document-type renames fan out to every indexed document that
-- references them.
CREATE OR REPLACE FUNCTION dsi_on_tag() RETURNS trigger AS $$
BEGIN
    PERFORM dsi_refresh(nt.node_id)
    FROM nodes_tags nt
    JOIN documents d ON d.node_id = nt.node_id
    WHERE nt.tag_id = COALESCE(NEW.id, OLD.id);
    RETURN NULL;
END;
$$ LANGUAGE plpgsql;

CREATE OR REPLACE FUNCTION dsi_on_document_type() RETURNS trigger AS $$
BEGIN
    PERFORM dsi_refresh(d.node_id)
    FROM documents d
    WHERE d.document_type_id = COALESCE(NEW.id, OLD.id);
    RETURN NULL;
END;
$$ LANGUAGE plpgsql;

DROP TRIGGER IF EXISTS trg_dsi_documents ON documents;
CREATE TRIGGER trg_dsi_documents
    AFTER INSERT OR UPDATE OR DELETE ON documents
    FOR EACH ROW EXECUTE FUNCTION dsi_on_document();

DROP TRIGGER IF EXISTS trg_dsi_nodes ON nodes;
CREATE TRIGGER trg_dsi_nodes
    AFTER INSERT OR UPDATE OR DELETE ON nodes
    FOR EACH ROW EXECUTE FUNCTION dsi_on_node();

DROP TRIGGER IF EXISTS trg_dsi_nodes_tags ON nodes_tags;
CREATE TRIGGER trg_dsi_nodes_tags
    AFTER INSERT OR DELETE ON nodes_tags
    FOR EACH ROW EXECUTE FUNCTION dsi_on_nodes_tags();

DROP TRIGGER IF EXISTS trg_dsi_cfv ON custom_field_values;
CREATE TRIGGER trg_dsi_cfv
    AFTER INSERT OR UPDATE OR DELETE ON custom_field_values
    FOR EACH ROW EXECUTE FUNCTION dsi_on_cfv();

DROP TRIGGER IF EXISTS trg_dsi_tags ON tags;
CREATE TRIGGER trg_dsi_tags
    AFTER UPDATE OR DELETE ON tags
    FOR EACH ROW EXECUTE FUNCTION dsi_on_tag();

DROP TRIGGER IF EXISTS trg_dsi_document_types ON document_types;
CREATE TRIGGER trg_dsi_document_types
    AFTER UPDATE OR DELETE ON document_types
    FOR EACH ROW EXECUTE FUNCTION dsi_on_document_type();
`

// InstallSearchIndex creates the document_search_index table, its GIN
// indexes and the maintenance triggers. Safe to run repeatedly.
func InstallSearchIndex(db *gorm.DB) error {
	return db.Exec(searchIndexDDL).Error
}
