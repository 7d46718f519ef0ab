// Package backup keeps sequential copies of config files next to them.
//
// Each call to [Manager.Backup] copies a config file to a new record in the
// same directory:
//
//	app.yaml
//	app.yaml.backup.1
//	app.yaml.backup.2
//
// The sequence number is one more than the highest existing record, so an
// earlier record is never overwritten.
//
// # Listing and Restoring
//
// [Manager.List] returns the records for a file, newest first.
// [Manager.Restore] copies a record back over the file atomically, applying
// the permissions captured with the record:
//
//	mgr := backup.NewManager()
//	records, err := mgr.List("app.yaml")
//	err = mgr.Restore("app.yaml", records[0].Seq)
//
// # Retention
//
// [Manager.Prune] removes all but the newest records. A Manager built with
// [WithRetentionCount] prunes after every backup.
//
// # Errors
//
//   - [ErrNoBackupsFound]: No records exist for the file, or the requested
//     sequence number does not exist
package backup
