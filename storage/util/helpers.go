package util

import (
	"fmt"
	"strings"
)

// DeriveTableName joins the configured prefix and table, or returns table alone when the
// prefix is blank.
func DeriveTableName(prefix string, table string) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return table
	}

	return fmt.Sprintf("%s_%s", prefix, table)
}
