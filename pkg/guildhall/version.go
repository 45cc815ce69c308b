// Package guildhall exposes module-wide metadata.
package guildhall

// Version is the guildhall release version.
const Version = "0.7.0"
