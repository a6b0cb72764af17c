package common

import (
	"fmt"
	"strconv"
	"strings"
)

// StoreConfig holds the resolved settings used to open a store from the cli
type StoreConfig struct {
	// Root directory of the store
	Path string
	// Compression and serialization strategy names
	Compression   string
	Serialization string
	// Number of lock slots of the file store
	LockSlots int

	// Logging configuration
	LogLevel string
}

// String returns a formatted string representation of the configuration
func (c *StoreConfig) String() string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Store")
	addField("Path", c.Path)
	addField("Compression", orDefault(c.Compression, "none"))
	addField("Serialization", orDefault(c.Serialization, "json"))
	addField("Lock Slots", strconv.Itoa(c.LockSlots))

	addSection("Logging")
	addField("Log Level", c.LogLevel)

	return sb.String()
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
