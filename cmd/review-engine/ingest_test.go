// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// The help text must list the catalog lookup in the order the resolver
// performs it.
func TestIngestHelpLookupOrder(t *testing.T) {
	help := strings.Join(strings.Fields(ingestCmd.Long), " ")
	assert.Contains(t, help, "by title fingerprint, DOI, then PMID")
}
