package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/inbox/internal/model"
)

func TestPrintBuckets(t *testing.T) {
	now := time.Date(2026, 10, 14, 15, 0, 0, 0, time.UTC)
	buckets := []model.Bucket{
		{Title: model.BucketNow, Notifications: []model.Notification{{
			ID:         "1",
			Category:   model.CategoryComment,
			ReceivedAt: now.Add(-2 * time.Minute).Format(time.RFC3339),
			Payload:    model.Payload{SenderName: "Ana", Text: "nice"},
		}}},
		{Title: model.BucketYesterday, Notifications: []model.Notification{{
			ID:         "2",
			Category:   model.CategoryFollow,
			ReceivedAt: "garbled",
		}}},
	}

	var out bytes.Buffer
	printBuckets(&out, buckets, now)

	want := strings.Join([]string{
		"Now (1)",
		"  [CMT] Ana commented on your post: nice (2 minutes ago)",
		"",
		"Yesterday (1)",
		"  [FLW] Someone started following you (garbled)",
		"",
	}, "\n")
	assert.Equal(t, want, out.String())
}

func TestPrintBuckets_Empty(t *testing.T) {
	var out bytes.Buffer
	printBuckets(&out, nil, time.Now())
	assert.Equal(t, "No notifications.\n", out.String())
}

func TestVersionCommand(t *testing.T) {
	cmd := rootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "inbox version 0.1.0 (build: dev)\n", out.String())
}

func TestRootCommand_RejectsIdentityOverride(t *testing.T) {
	cmd := rootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--identity", "ana", "--config", t.TempDir() + "/missing.yaml"})

	err := cmd.Execute()
	require.ErrorIs(t, err, errIdentityInTUI)
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd().Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"list", "push", "listen", "login", "logout", "whoami", "clear", "version"} {
		assert.True(t, names[want], want)
	}
}

func TestNewLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, "warn")
	l.Info("hidden")
	l.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}
