// Package serialization provides the .dalt file format for saving and loading homogeneous tables.
//
// The .dalt format stores any number of named tables:
//
//	Format Structure:
//	  [4 bytes: Magic "DALT"]
//	  [4 bytes: Version (uint32 LE)]
//	  [4 bytes: Flags (uint32 LE)]
//	  [4 bytes: Reserved]
//	  [8 bytes: Header Size (uint64 LE)]
//	  [8 bytes: Data Size (uint64 LE)]
//	  [32 bytes: SHA-256 of the data section]
//	  [Header: JSON metadata]
//	  [Data: table payloads, each 64-byte aligned]
//
// Payloads hold a table's elements in its own layout and in the writer's
// byte order, optionally compressed with a named codec (zstd, lz4, snappy).
// The JSON header records that order as "byte_order"; a file whose order
// differs from the reader's host fails to load with ErrByteOrder. Files
// written on little-endian hosts load on every little-endian host.
//
// Example usage:
//
//	// Save
//	err := serialization.WriteFile("iris.dalt", []serialization.NamedTable{
//	    {Name: "features", Table: features},
//	}, serialization.WithCompression("zstd"))
//
//	// Load into owning, mutable tables
//	f, err := serialization.ReadFile("iris.dalt")
//	features, err := f.Table("features")
//
//	// Or map the file and get zero-copy read-only tables
//	r, err := serialization.OpenMmap("iris.dalt")
//	defer r.Close()
//	features, err := r.Table("features")
package serialization
