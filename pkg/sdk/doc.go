// Package tosarchive answers point-in-time and term questions over a
// terms-of-service snapshot corpus on disk, in process, without the HTTP API.
//
// The corpus lives under <root>/<service>/<document_type>/<timestamp>.md.
//
//	client, _ := tosarchive.New(ctx, tosarchive.WithCorpus("/data/dataset"))
//	v, _ := client.Resolve(ctx, "Facebook", "Terms of Service", "2020-08-13")
//	fmt.Println(v.Version, v.Next)
//
// # Term scans
//
// Terms are comma-separated regular expression fragments matched without
// regard to case. A snapshot matches when any line contains any term.
//
//	first, _ := client.FirstOccurrence(ctx, "rgpd,gdpr")
//	all, _ := client.AllOccurrences(ctx, "cookies")
//
// Scans read every snapshot. WithRedisCache keeps finished scans keyed by the
// dataset release recorded in the marker file (see WithMarker).
package tosarchive
