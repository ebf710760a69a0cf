package req

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeTask_DecodesBackToSameTask(t *testing.T) {
	// Given
	doc := mustParse(t, `
[tasks.t]
POST = "${host}/upload"
description = "upload a report"
headers = { X-One = "1", X-Many = ["a", "b"] }
queries = { q = "x" }
auth.basic = { username = "u", password = "p" }

[tasks.t.body.multipart]
title = "report"
file = { file = "./report.pdf" }

[tasks.t.config]
insecure = true
redirect = 4
env-file = "./dev.env"
proxy = { http = "http://h:1", https = { url = "http://s:2", username = "u", password = "p" } }
`)
	original := doc.Tasks["t"]

	// When
	tree := EncodeTask(original)
	decoded, err := DecodeDocument(map[string]any{"tasks": map[string]any{"t": tree}})

	// Then
	require.NoError(t, err)
	assert.Equal(t, original, decoded.Tasks["t"])
}

func TestEncodeTask_OmitsEmptySections(t *testing.T) {
	tree := EncodeTask(Task{Name: "t", Target: Target{Method: MethodGet, URL: "http://localhost"}, Body: EmptyBody{}})

	assert.Equal(t, map[string]any{"GET": "http://localhost"}, tree)
}
