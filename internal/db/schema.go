package db

// schemaTemplate contains the database schema initialization SQL.
// The HNSW index dimension is bound at InitSchema time so it always matches
// the configured embedding model.
const schemaTemplate = `
    -- ==========================================================================
    -- BOOKMARK TABLE
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS bookmark SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS owner ON bookmark TYPE string;
    DEFINE FIELD IF NOT EXISTS title ON bookmark TYPE string;
    DEFINE FIELD IF NOT EXISTS url ON bookmark TYPE string;
    DEFINE FIELD IF NOT EXISTS folder ON bookmark TYPE option<record<folder>>;
    DEFINE FIELD IF NOT EXISTS favicon ON bookmark TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS og_image ON bookmark TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS description ON bookmark TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS metadata_status ON bookmark TYPE string DEFAULT "pending";
    DEFINE FIELD IF NOT EXISTS created ON bookmark TYPE datetime DEFAULT time::now();

    -- (owner, url) is the natural key: creation is idempotent against it
    DEFINE INDEX IF NOT EXISTS bookmark_owner_url ON bookmark FIELDS owner, url UNIQUE;
    DEFINE INDEX IF NOT EXISTS bookmark_owner ON bookmark FIELDS owner;
    DEFINE INDEX IF NOT EXISTS bookmark_metadata_status ON bookmark FIELDS owner, metadata_status;

    -- ==========================================================================
    -- FOLDER TABLE
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS folder SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS owner ON folder TYPE string;
    DEFINE FIELD IF NOT EXISTS name ON folder TYPE string;
    DEFINE FIELD IF NOT EXISTS parent ON folder TYPE option<record<folder>>;
    DEFINE FIELD IF NOT EXISTS created ON folder TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS folder_owner ON folder FIELDS owner;

    -- ==========================================================================
    -- BOOKMARK EMBEDDING TABLE (one record per bookmark, same string id)
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS bookmark_embedding SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS owner ON bookmark_embedding TYPE string;
    DEFINE FIELD IF NOT EXISTS embedding ON bookmark_embedding TYPE array<float>;
    DEFINE FIELD IF NOT EXISTS dim ON bookmark_embedding TYPE int;
    DEFINE FIELD IF NOT EXISTS model ON bookmark_embedding TYPE string;
    DEFINE FIELD IF NOT EXISTS dtype ON bookmark_embedding TYPE string;
    DEFINE FIELD IF NOT EXISTS content_hash ON bookmark_embedding TYPE string;
    DEFINE FIELD IF NOT EXISTS updated ON bookmark_embedding TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS bookmark_embedding_owner ON bookmark_embedding FIELDS owner;
    DEFINE INDEX IF NOT EXISTS bookmark_embedding_hnsw ON bookmark_embedding FIELDS embedding HNSW DIMENSION %d DIST COSINE TYPE F32;
`
