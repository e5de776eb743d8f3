package config

// Specification of supported target data structures.
// ENUM(keyvalue, xml)
type Format int
