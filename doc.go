// Package sparkify turns raw music-streaming data into a small dimensional
// model. It contains the interfaces and the core transformation for each stage
// of the pipeline described below. Implementations of the storage-facing
// interfaces live in sub-packages.
//
// 1. Storage
//
//    A sparkify.Storage resolves a base location plus a glob pattern into a
//    RawSource, which hands out one NamedReadCloser per matching object. The
//    file package reads from local disk and the aws/s3 package reads from S3.
//    Storage knows nothing about the contents of the objects.
//
// 2. Records
//
//    Objects contain JSON documents, either one per line or simply
//    concatenated. Each document is decoded and then parsed into a SongRecord
//    (catalog data) or a LogRecord (user activity). Parsing is strict: a field
//    with the wrong type is a *SchemaError and is handled according to the
//    session's BadRecordPolicy. It is never coerced.
//
// 3. Stages
//
//    The catalog stage (ProcessSongData) builds the songs and artists tables.
//    The activity stage (ProcessLogData) keeps only NextSong events, builds the
//    users and time tables, and joins the events against the catalog through a
//    CatalogIndex to build the songplays fact table. The join matches on the
//    artist name after trimming and case folding both sides, so ties are
//    possible; they are broken deterministically, preferring a candidate whose
//    title matches the played song and then the lowest song id.
//
// 4. Sink
//
//    Every table is handed to a Sink as a *Table, already split into
//    partitions. The parquet package writes tables as Parquet files in Hive
//    style partition directories and replaces the previous contents of the
//    table location in one step.
//
// All timestamps are interpreted in UTC. Rerunning a stage over unchanged
// input produces the same rows in the same order.
package sparkify
