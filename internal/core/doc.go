// Package core provides the record operations behind the HTTP API.
//
// The dataset lives entirely in one spreadsheet file (see package workbook).
// There is no cache: every operation on [Service] loads the whole file,
// applies one change in memory, and writes the whole file back.
//
// # Operations
//
//   - [Service.List] returns all records in file order.
//   - [Service.Create] appends a record whose id is the current Unix time in
//     milliseconds.
//   - [Service.Update] merges fields onto the first record with a matching id.
//   - [Service.Delete] removes the first record with a matching id.
//   - [Service.ImportUpload] and [Service.ReplaceFromFile] replace the entire
//     dataset with the first sheet of an uploaded .xlsx or .csv file.
//
// Update and Delete return an error wrapping [ErrRecordNotFound] when no
// record matches; the file is left untouched in that case.
//
// # Concurrency
//
// A Service serializes its read-modify-write cycles with one mutex, so
// concurrent requests in the same process never lose each other's updates.
// Upload parsing happens outside that lock and is bounded by an
// [UploadLimiter].
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each category has a code for support reference (REC, FILE, STO, UPL, RATE).
package core
