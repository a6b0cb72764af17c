// Package common holds the process-wide setup shared by the cli commands:
// the logger factory installed into dragonboats logger package and the
// resolved store configuration.
package common
