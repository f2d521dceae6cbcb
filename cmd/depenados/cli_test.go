package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PortNumber53/depenados/internal/config"
	"github.com/PortNumber53/depenados/internal/gate"
	"github.com/PortNumber53/depenados/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recorded struct {
	method, path string
	body         string
}

// fakeAPI records every request and answers from routes keyed by "METHOD /path".
type fakeAPI struct {
	mu       sync.Mutex
	requests []recorded
	routes   map[string]string
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, recorded{method: r.Method, path: r.URL.Path, body: string(b)})
	body, ok := f.routes[r.Method+" "+r.URL.Path]
	f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":"not found"}`)
		return
	}
	_, _ = io.WriteString(w, body)
}

func (f *fakeAPI) calls(method string) []recorded {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []recorded
	for _, r := range f.requests {
		if r.method == method {
			out = append(out, r)
		}
	}
	return out
}

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func runCLI(t *testing.T, api *fakeAPI, stdin string, args ...string) (string, error) {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	root := newRootCmd(env{
		loadConfig: func() config.Config { return config.Config{APIURL: srv.URL} },
		newLogger:  func(bool) (*zap.Logger, error) { return zap.NewNop(), nil },
		now:        func() time.Time { return fixedNow },
		gateOpts:   []gate.Option{gate.WithDwell(time.Millisecond)},
	})
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestMembersAdd_ConfirmedByPhrase(t *testing.T) {
	api := &fakeAPI{routes: map[string]string{
		"POST /api/members": `{"id":"m1","name":"Ana Souza","nickname":"aninha","joinedAt":"2024-01-01T00:00:00Z"}`,
	}}
	out, err := runCLI(t, api, "Na Capoeira\n", "members", "add", "--name", "Ana Souza", "--nickname", "aninha")
	require.NoError(t, err)
	assert.Contains(t, out, "Membro adicionado: m1")
	assert.Contains(t, out, "Na capoeira!")

	posts := api.calls(http.MethodPost)
	require.Len(t, posts, 1)
	var sent map[string]any
	require.NoError(t, json.Unmarshal([]byte(posts[0].body), &sent))
	assert.Equal(t, "aninha", sent["nickname"])
	assert.NotContains(t, sent, "bio")
}

func TestMembersAdd_FormValidationStopsBeforeGate(t *testing.T) {
	api := &fakeAPI{}
	_, err := runCLI(t, api, "na capoeira\n", "members", "add", "--name", "A")
	var fe models.FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, fe, "nickname")
	assert.Empty(t, api.calls(http.MethodPost))
}

func TestMembersRm_WrongPhraseThreeTimesCancels(t *testing.T) {
	api := &fakeAPI{routes: map[string]string{"DELETE /api/members/m1": `{"success":true}`}}
	out, err := runCLI(t, api, "capoeira\nna praia\nsei la\n", "members", "rm", "m1")
	assert.ErrorIs(t, err, errCancelled)
	assert.Contains(t, out, `Frase incorreta ("capoeira")`)
	assert.Empty(t, api.calls(http.MethodDelete))
}

func TestMembersRm_SecondAttemptMatches(t *testing.T) {
	api := &fakeAPI{routes: map[string]string{"DELETE /api/members/m1": `{"success":true}`}}
	out, err := runCLI(t, api, "capoeira\nna capoeira\n", "members", "rm", "m1")
	require.NoError(t, err)
	assert.Contains(t, out, "Membro removido")
	assert.Len(t, api.calls(http.MethodDelete), 1)
}

func TestMembersRm_EndOfInputCancels(t *testing.T) {
	api := &fakeAPI{}
	_, err := runCLI(t, api, "", "members", "rm", "m1")
	assert.ErrorIs(t, err, errCancelled)
	assert.Empty(t, api.calls(http.MethodDelete))
}

func TestMembersRm_ServerErrorSurfaces(t *testing.T) {
	api := &fakeAPI{}
	_, err := runCLI(t, api, "na capoeira\n", "members", "rm", "m1")
	require.Error(t, err)
	assert.False(t, errors.Is(err, errCancelled))
	assert.Len(t, api.calls(http.MethodDelete), 1)
}

func TestMembersList(t *testing.T) {
	api := &fakeAPI{routes: map[string]string{
		"GET /api/members": `[{"id":"m1","name":"Ana","nickname":"aninha","role":"goleira","joinedAt":"2024-01-01T00:00:00Z",
			"_count":{"storiesAuthored":2,"storiesIn":1,"eventsCreated":0,"eventsIn":4}}]`,
	}}
	out, err := runCLI(t, api, "", "members", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "aninha")
	assert.Contains(t, out, "goleira")
	assert.Regexp(t, `aninha\s+Ana\s+goleira\s+3\s+4`, out)
}

func TestCountersBump(t *testing.T) {
	api := &fakeAPI{routes: map[string]string{
		"PATCH /api/counters": `{"id":"main","brigas":3,"acidentes":1,"pts":0,"updatedAt":"2024-01-01T00:00:00Z"}`,
	}}
	out, err := runCLI(t, api, "na capoeira\n", "counters", "bump", "brigas", "--down")
	require.NoError(t, err)
	assert.Regexp(t, `Brigas\s+3`, out)

	patches := api.calls(http.MethodPatch)
	require.Len(t, patches, 1)
	assert.JSONEq(t, `{"type":"brigas","action":"decrement"}`, patches[0].body)
}

func TestCountersBump_InvalidType(t *testing.T) {
	api := &fakeAPI{}
	_, err := runCLI(t, api, "na capoeira\n", "counters", "bump", "gols")
	require.Error(t, err)
	assert.Empty(t, api.requests)
}

func TestCountersSet_OnlyChangedFields(t *testing.T) {
	api := &fakeAPI{routes: map[string]string{
		"PUT /api/counters": `{"id":"main","brigas":0,"acidentes":0,"pts":10}`,
	}}
	_, err := runCLI(t, api, "na capoeira\n", "counters", "set", "--pts", "10")
	require.NoError(t, err)
	puts := api.calls(http.MethodPut)
	require.Len(t, puts, 1)
	assert.JSONEq(t, `{"pts":10}`, puts[0].body)
}

func TestEventsUpcoming(t *testing.T) {
	api := &fakeAPI{routes: map[string]string{
		"GET /api/events": `[
			{"id":"e1","title":"Passado","date":"2024-05-01T20:00:00Z","createdBy":"a","status":"upcoming","stories":[]},
			{"id":"e2","title":"Praia","date":"2024-06-10T20:00:00Z","createdBy":"a","status":"upcoming","stories":[{"id":"s1","title":"x"}],"_count":{"stories":1}},
			{"id":"e3","title":"Cancelado","date":"2024-06-11T20:00:00Z","createdBy":"a","status":"cancelled","stories":[]}
		]`,
	}}
	out, err := runCLI(t, api, "", "events", "upcoming")
	require.NoError(t, err)
	assert.Contains(t, out, "Praia")
	assert.NotContains(t, out, "Passado")
	assert.NotContains(t, out, "Cancelado")
}

func TestEventsAdd_SendsParsedDate(t *testing.T) {
	api := &fakeAPI{routes: map[string]string{
		"POST /api/events": `{"id":"e9","title":"Role","date":"2024-07-01T20:00:00Z","createdBy":"aninha","status":"upcoming"}`,
	}}
	_, err := runCLI(t, api, "na capoeira\n", "events", "add",
		"--title", "Role", "--date", "2024-07-01T20:00:00Z", "--created-by", "aninha", "--participant", "m1,m2")
	require.NoError(t, err)
	posts := api.calls(http.MethodPost)
	require.Len(t, posts, 1)
	var sent models.EventInput
	require.NoError(t, json.Unmarshal([]byte(posts[0].body), &sent))
	require.NotNil(t, sent.Date)
	assert.True(t, sent.Date.Equal(time.Date(2024, 7, 1, 20, 0, 0, 0, time.UTC)))
	assert.Equal(t, []string{"m1", "m2"}, sent.ParticipantIDs)
	assert.Nil(t, sent.Status)
}

func TestStoriesAdd_TagsAndMedia(t *testing.T) {
	api := &fakeAPI{routes: map[string]string{
		"POST /api/stories": `{"id":"s1","title":"Noite na praia","content":"x","author":"aninha","tags":["praia","noite"],"media":[],"featured":false}`,
	}}
	content := strings.Repeat("Foi uma noite longa. ", 4)
	_, err := runCLI(t, api, "na capoeira\n", "stories", "add",
		"--title", "Noite na praia", "--content", content, "--author", "aninha",
		"--tags", "Praia, noite,praia", "--media", "video=https://cdn/v.mp4", "--media", "https://cdn/a.jpg")
	require.NoError(t, err)

	posts := api.calls(http.MethodPost)
	require.Len(t, posts, 1)
	var sent struct {
		Tags       []string            `json:"tags"`
		CoverImage string              `json:"coverImage"`
		Media      []models.MediaInput `json:"media"`
	}
	require.NoError(t, json.Unmarshal([]byte(posts[0].body), &sent))
	assert.Equal(t, []string{"praia", "noite"}, sent.Tags)
	assert.Equal(t, "https://cdn/a.jpg", sent.CoverImage)
	require.Len(t, sent.Media, 2)
	assert.Equal(t, models.MediaTypeVideo, sent.Media[0].Type)
}

func TestStoriesAdd_ShortContentRejected(t *testing.T) {
	api := &fakeAPI{}
	_, err := runCLI(t, api, "na capoeira\n", "stories", "add", "--title", "Curta", "--content", "pouco", "--author", "aninha")
	require.Error(t, err)
	assert.Empty(t, api.requests)
}

func TestStoriesList_RecentFilter(t *testing.T) {
	api := &fakeAPI{routes: map[string]string{
		"GET /api/stories": `[
			{"id":"s1","title":"Antiga","content":"","author":"a","tags":"[\"x\"]","media":[],"createdAt":"2024-01-01T00:00:00Z"},
			{"id":"s2","title":"Nova","content":"","author":"b","tags":[],"media":[],"createdAt":"2024-03-01T00:00:00Z"}
		]`,
	}}
	out, err := runCLI(t, api, "", "stories", "list", "--filter", "recent")
	require.NoError(t, err)
	assert.Less(t, strings.Index(out, "Nova"), strings.Index(out, "Antiga"))
	assert.Contains(t, out, "x")
}

func TestParseDate(t *testing.T) {
	d, err := parseDate("2024-07-01T20:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, 20, d.UTC().Hour())

	d, err = parseDate("2024-07-01 18:30")
	require.NoError(t, err)
	assert.Equal(t, 30, d.Minute())

	_, err = parseDate("amanhã")
	assert.Error(t, err)
}

func TestParseMedia(t *testing.T) {
	media, err := parseMedia([]string{"audio=https://cdn/a.mp3", "https://cdn/b.jpg"})
	require.NoError(t, err)
	assert.Equal(t, []models.MediaInput{
		{Type: models.MediaTypeAudio, URL: "https://cdn/a.mp3"},
		{Type: models.MediaTypeImage, URL: "https://cdn/b.jpg"},
	}, media)

	_, err = parseMedia([]string{"gif=https://cdn/c.gif"})
	assert.Error(t, err)
}

func TestTable(t *testing.T) {
	st := newStyles(&bytes.Buffer{})
	got := st.table([]string{"A", "BB"}, [][]string{{"xxx", "y"}, {"z"}})
	assert.Equal(t, "A    BB\nxxx  y\nz", got)
	assert.Equal(t, "(nada por aqui)", st.table([]string{"A"}, nil))
}

func TestUpload(t *testing.T) {
	path := t.TempDir() + "/foto.png"
	require.NoError(t, os.WriteFile(path, []byte("\x89PNG\r\n\x1a\nfake"), 0o600))

	api := &fakeAPI{routes: map[string]string{
		"POST /api/upload": `{"files":[{"id":"depenados/media/abc","url":"https://cdn/abc.png","type":"image","originalName":"foto.png"}]}`,
	}}
	out, err := runCLI(t, api, "na capoeira\n", "upload", path)
	require.NoError(t, err)
	assert.Contains(t, out, "https://cdn/abc.png")

	posts := api.calls(http.MethodPost)
	require.Len(t, posts, 1)
	assert.Contains(t, posts[0].body, `filename="foto.png"`)
}

func TestStoriesEdit_EmptyTagsClearsThem(t *testing.T) {
	api := &fakeAPI{routes: map[string]string{
		"PUT /api/stories/s1": `{"id":"s1","title":"Noite","content":"C","author":"aninha","tags":[],"media":[]}`,
	}}
	_, err := runCLI(t, api, "na capoeira\n", "stories", "edit", "s1", "--tags", "")
	require.NoError(t, err)

	puts := api.calls(http.MethodPut)
	require.Len(t, puts, 1)
	assert.Contains(t, puts[0].body, `"tags":[]`)
}
