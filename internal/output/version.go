package output

// SchemaVersion is the current version of the NDJSON record schema.
// Increment it on breaking changes to any record shape.
const SchemaVersion = 1
