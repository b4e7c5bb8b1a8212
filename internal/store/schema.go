package store

const SchemaVersion = 1

const schemaSQL = `
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS traits (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    path TEXT UNIQUE NOT NULL
);

CREATE TABLE IF NOT EXISTS modules (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT UNIQUE NOT NULL
);

CREATE TABLE IF NOT EXISTS implementors (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    trait_id INTEGER NOT NULL REFERENCES traits(id) ON DELETE CASCADE,
    module_id INTEGER NOT NULL REFERENCES modules(id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    display TEXT NOT NULL,
    synthetic INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_implementors_trait ON implementors(trait_id);
CREATE INDEX IF NOT EXISTS idx_implementors_module ON implementors(module_id);

CREATE TABLE IF NOT EXISTS impl_types (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    implementor_id INTEGER NOT NULL REFERENCES implementors(id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    type_path TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_impl_types_implementor ON impl_types(implementor_id);
`
