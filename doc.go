// Package bagger is the Composition Root for the bagger packaging engine.
//
// It connects the packaging pipeline (Domain Layer) with the BagIt filesystem
// assembler and the content source (Infrastructure Layer).
//
// Philosophy:
//
// A package is a BagIt bag whose payload is a content tree and whose tag
// files describe it. The RDF graph of the content is partitioned so every
// domain object lands in exactly one serialized description, and an ORE
// resource map ties descriptions to the files they describe.
//
// Features:
//
//   - **Graph Partitioning**: Each domain object's local closure is cut into its own description.
//   - **URI Rebasing**: References to domain objects and files are rewritten to bag URIs.
//   - **Resource Map**: ORE aggregation of every description, content file and ontology.
//   - **Archives**: tar, zip, jar, ar, cpio or exploded, with gzip, bzip2, zstd or lz4 compression.
//   - **Checksums**: md5, sha1, sha256, sha512 and blake3 manifests and tag manifests.
//   - **Package State**: a CBOR snapshot of the build, so packages can be inspected later.
//
// Usage:
//
//	f, err := bagger.LoadParams("bagger.yaml")
//	if err != nil {
//		return err
//	}
//	pkg, err := bagger.Build(ctx, f, bagger.WithLogger(logger))
package bagger
