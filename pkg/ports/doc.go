// Package ports defines the interfaces between the live graph application
// and its adapters.
package ports
