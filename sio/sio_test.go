package sio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Comcast/nudge/core"
	"github.com/Comcast/nudge/util/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const catalogYAML = `
messages:
  welcome:
    text: Hello
    action: OPEN
    trigger: [ALWAYS]
actions:
  OPEN: app://open
triggers:
  ALWAYS: "true"
messageUnderExperiment: welcome
`

const otherYAML = `
messages:
  goodbye:
    action: OPEN
    trigger: [ALWAYS]
actions:
  OPEN: app://open
triggers:
  ALWAYS: "true"
`

func TestReadCatalog(t *testing.T) {
	filename := testutil.WriteFile(t, "catalog.yaml", catalogYAML)
	c, err := ReadCatalog(filename)
	require.NoError(t, err)
	require.Len(t, c.Messages, 1)
	assert.Equal(t, "welcome", c.Messages[0].Id)
	assert.Equal(t, core.DefaultControlBehavior, c.OnControl)

	_, err = ReadCatalog(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestHolder(t *testing.T) {
	h := NewHolder(nil)
	assert.Nil(t, h.Catalog())
	v, _ := h.Version()
	assert.Equal(t, 0, v)

	c0, err := core.ParseCatalog([]byte(catalogYAML))
	require.NoError(t, err)
	h.Set(c0)
	assert.Same(t, c0, h.Catalog())

	c1, err := core.ParseCatalog([]byte(otherYAML))
	require.NoError(t, err)
	h.Set(c1)
	assert.Same(t, c1, h.Catalog())
	v, _ = h.Version()
	assert.Equal(t, 2, v)

	// The old snapshot is untouched.
	assert.Equal(t, "welcome", c0.Messages[0].Id)
}

func TestFileCouplings(t *testing.T) {
	ctx := context.Background()
	filename := testutil.WriteFile(t, "catalog.yaml", catalogYAML)

	h := NewHolder(nil)
	c := NewFileCouplings(filename, false, h, nil)
	require.NoError(t, c.Start(ctx))
	require.NotNil(t, h.Catalog())
	assert.Equal(t, "welcome", h.Catalog().Messages[0].Id)

	require.NoError(t, os.WriteFile(filename, []byte(otherYAML), 0644))
	require.NoError(t, c.Reload())
	assert.Equal(t, "goodbye", h.Catalog().Messages[0].Id)

	require.NoError(t, c.Stop(ctx))

	missing := NewFileCouplings(filepath.Join(t.TempDir(), "nope.yaml"), false, h, nil)
	require.Error(t, missing.Start(ctx))
}

func currentId(h *Holder) string {
	c := h.Catalog()
	if c == nil || len(c.Messages) == 0 {
		return ""
	}
	return c.Messages[0].Id
}

func TestFileCouplingsWatch(t *testing.T) {
	ctx := context.Background()
	filename := testutil.WriteFile(t, "catalog.yaml", catalogYAML)

	zc, logs := observer.New(zap.InfoLevel)
	h := NewHolder(nil)
	c := NewFileCouplings(filename, true, h, zap.New(zc))
	c.Debounce = 10 * time.Millisecond
	require.NoError(t, c.Start(ctx))
	defer c.Stop(ctx)
	assert.Equal(t, "welcome", currentId(h))

	// Written in place.
	require.NoError(t, os.WriteFile(filename, []byte(otherYAML), 0644))
	require.Eventually(t, func() bool { return currentId(h) == "goodbye" },
		5*time.Second, 10*time.Millisecond)

	// Renamed into place.
	tmp := filepath.Join(filepath.Dir(filename), "catalog.yaml.tmp")
	require.NoError(t, os.WriteFile(tmp, []byte(catalogYAML), 0644))
	require.NoError(t, os.Rename(tmp, filename))
	require.Eventually(t, func() bool { return currentId(h) == "welcome" },
		5*time.Second, 10*time.Millisecond)

	// A bad catalog is logged and the last good one stays.
	require.NoError(t, os.WriteFile(filename, []byte("onControl: explode"), 0644))
	require.Eventually(t, func() bool {
		return logs.FilterMessage("catalog reload failed").Len() > 0
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, "welcome", currentId(h))

	// Other files in the directory are ignored.
	before, _ := h.Version()
	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(filename), "other.yaml"), []byte(otherYAML), 0644))
	time.Sleep(100 * time.Millisecond)
	after, _ := h.Version()
	assert.Equal(t, before, after)

	require.NoError(t, c.Stop(ctx))
}

func TestHTTPCouplings(t *testing.T) {
	ctx := context.Background()

	var sawCookie bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := r.Cookie("session"); err == nil {
			sawCookie = true
		}
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "42", Path: "/"})
		fmt.Fprint(w, catalogYAML)
	}))
	defer srv.Close()

	h := NewHolder(nil)
	c, err := NewHTTPCouplings(srv.URL+"/catalog", 0, h, nil)
	require.NoError(t, err)
	require.NoError(t, c.Start(ctx))
	require.NotNil(t, h.Catalog())
	assert.Equal(t, "welcome", h.Catalog().Messages[0].Id)

	_, err = c.Fetch(ctx)
	require.NoError(t, err)
	assert.True(t, sawCookie, "session cookie not sent back")

	require.NoError(t, c.Stop(ctx))
}

func TestHTTPCouplingsBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	c, err := NewHTTPCouplings(srv.URL, 0, NewHolder(nil), nil)
	require.NoError(t, err)
	require.Error(t, c.Start(context.Background()))
}

func TestParseTopic(t *testing.T) {
	for _, tc := range []struct {
		in    string
		topic string
		qos   byte
	}{
		{"nudge/catalog", "nudge/catalog", 0},
		{"nudge/catalog:1", "nudge/catalog", 1},
		{"nudge/catalog:2", "nudge/catalog", 2},
		{"", "", 0},
	} {
		topic, qos := parseTopic(tc.in)
		assert.Equal(t, tc.topic, topic, tc.in)
		assert.Equal(t, tc.qos, qos, tc.in)
	}
}

type published struct {
	topic   string
	qos     byte
	payload []byte
}

func newTestMQTT(t *testing.T) (*MQTTCouplings, *[]published, *observer.ObservedLogs) {
	zc, logs := observer.New(zap.InfoLevel)
	c, err := NewMQTTCouplings(DefaultMQTTOptions(), NewHolder(nil), zap.New(zc))
	require.NoError(t, err)

	var acc []published
	c.Publish = func(topic string, qos byte, payload []byte) error {
		acc = append(acc, published{topic, qos, payload})
		return nil
	}
	c.Now = func() time.Time {
		return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	}
	return c, &acc, logs
}

func TestMQTTReceive(t *testing.T) {
	c, _, logs := newTestMQTT(t)

	c.receive("nudge/catalog", []byte(catalogYAML))
	require.NotNil(t, c.Holder.Catalog())
	assert.Equal(t, "welcome", c.Holder.Catalog().Messages[0].Id)

	c.receive("nudge/catalog", []byte("onControl: explode"))
	assert.Equal(t, "welcome", c.Holder.Catalog().Messages[0].Id)
	bad := logs.FilterMessage("ignoring bad catalog").All()
	require.Len(t, bad, 1)
	assert.Equal(t, "onControl: explode", bad[0].ContextMap()["payload"])
}

func TestMQTTRecordExposure(t *testing.T) {
	c, acc, _ := newTestMQTT(t)
	c.receive("nudge/catalog", []byte(catalogYAML))

	m := &core.Message{Id: "welcome"}
	require.NoError(t, c.RecordExposure(context.Background(), m))
	require.Len(t, *acc, 1)

	p := (*acc)[0]
	assert.Equal(t, "nudge/exposure", p.topic)
	assert.Equal(t, byte(0), p.qos)

	var got map[string]Exposure
	require.NoError(t, json.Unmarshal(p.payload, &got))
	assert.Equal(t, Exposure{
		Message:    "welcome",
		Experiment: "welcome",
		At:         "2024-03-01T12:00:00Z",
	}, got["exposure"])

	c.Options.ExposureTopic = ""
	require.NoError(t, c.RecordExposure(context.Background(), m))
	assert.Len(t, *acc, 1)
}

type failingExposures struct {
	calls int
}

func (e *failingExposures) RecordExposure(ctx context.Context, m *core.Message) error {
	e.calls++
	return errors.New("broker down")
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "messages: welcome: text: Hello",
		Excerpt([]byte("messages:\n  welcome:\n    text: Hello\n")))

	// Two bytes per rune, so the cut lands on a rune boundary.
	assert.Equal(t, strings.Repeat("é", 35)+"...",
		Excerpt([]byte(strings.Repeat("é", 40))))

	// A cut that would split a rune backs off.
	assert.Equal(t, "x"+strings.Repeat("é", 34)+"...",
		Excerpt([]byte("x"+strings.Repeat("é", 40))))

	assert.Equal(t, "0xff00", Excerpt([]byte{0xff, 0}))
}

func TestMultiExposures(t *testing.T) {
	zc, logs := observer.New(zap.InfoLevel)
	bad := &failingExposures{}
	es := MultiExposures{bad, nil, &LoggingExposures{Logger: zap.New(zc)}}

	err := es.RecordExposure(context.Background(), &core.Message{Id: "welcome"})
	require.EqualError(t, err, "broker down")
	assert.Equal(t, 1, bad.calls)
	assert.Equal(t, 1, logs.FilterMessage("exposure").Len())
}

func TestFetchCatalog(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"messages":{"b":{"action":"OPEN","trigger":["ALWAYS"]},"a":{"action":"OPEN","trigger":["ALWAYS"]}},"actions":{"OPEN":"app://open"},"triggers":{"ALWAYS":"true"}}`)
	}))
	defer srv.Close()

	c, err := FetchCatalog(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Len(t, c.Messages, 2)
	assert.Equal(t, "b", c.Messages[0].Id)
	assert.Equal(t, "a", c.Messages[1].Id)
}
