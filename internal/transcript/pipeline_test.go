package transcript

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/spec-kit/ticket-archiver/internal/access"
	"github.com/spec-kit/ticket-archiver/internal/crypto"
	"github.com/spec-kit/ticket-archiver/internal/domain"
	"github.com/spec-kit/ticket-archiver/internal/locale"
	"github.com/spec-kit/ticket-archiver/internal/platform"
	"github.com/spec-kit/ticket-archiver/internal/render"
	"github.com/spec-kit/ticket-archiver/internal/repository"
	"github.com/spec-kit/ticket-archiver/internal/workerpool"
	apperrors "github.com/spec-kit/ticket-archiver/pkg/util/errorutil"
)

const (
	markdownTemplate = `# {{.ChannelName}}
Created {{.CreatedAtFull}}
Pinned: {{.Pinned}}
{{range .Ticket.Messages}}[{{.ID}}] {{.Author.Username}}: {{.Content}}{{if .Deleted}} (deleted){{end}}
{{end}}`

	htmlTemplate = `<title>{{.ChannelName}}</title>` +
		`{{range .Messages}}<p{{if .IsPinned}} class="pinned"{{end}}>{{.Content}}` +
		`{{range .Attachments}}{{if .IsImage}}<img src="{{.URL}}">{{end}}{{end}}</p>{{end}}` +
		`<div class="rating">{{range .RatingStars}}★{{end}}{{range .RatingEmpty}}☆{{end}}</div>` +
		`<footer>{{.GeneratedAt}}</footer>`

	ticketID = domain.TicketID("900000000000000001")
)

type fakeRepo struct {
	tickets  map[domain.TicketID]*domain.Ticket
	settings map[domain.GuildID]*domain.Settings
	refs     []repository.TicketRef
}

func (r *fakeRepo) FindTicket(_ context.Context, ref repository.TicketRef) (*domain.Ticket, error) {
	r.refs = append(r.refs, ref)
	for _, t := range r.tickets {
		if ref.ByNumber() && t.GuildID == ref.GuildID && t.Number == ref.Number {
			return t, nil
		}
		if !ref.ByNumber() && t.ID == ref.ID {
			return t, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeRepo) FindTicketByChannel(context.Context, domain.ChannelID) (*domain.Ticket, error) {
	return nil, repository.ErrNotFound
}

func (r *fakeRepo) FindArchivedMessage(context.Context, domain.MessageID) (*domain.ArchivedMessage, error) {
	return nil, repository.ErrNotFound
}

func (r *fakeRepo) MarkMessageDeleted(context.Context, domain.MessageID) (int64, error) {
	return 0, nil
}

func (r *fakeRepo) FindSettings(_ context.Context, id domain.GuildID) (*domain.Settings, error) {
	if s, ok := r.settings[id]; ok {
		return s, nil
	}
	return nil, repository.ErrNotFound
}

type fakeGateway struct {
	members map[domain.UserID]*domain.Member
	err     error
}

func (g *fakeGateway) FetchMember(_ context.Context, _ domain.GuildID, id domain.UserID) (*domain.Member, error) {
	if g.err != nil {
		return nil, g.err
	}
	if m, ok := g.members[id]; ok {
		return m, nil
	}
	return nil, platform.ErrNotFound
}

func (g *fakeGateway) MostRecentDeletionEntry(context.Context, domain.GuildID) (*domain.AuditCorrelation, error) {
	return nil, nil
}

func (g *fakeGateway) GuildName(context.Context, domain.GuildID) (string, error) {
	return "Support Server", nil
}

func fixture(t *testing.T, codec *crypto.Codec) *domain.Ticket {
	t.Helper()
	sealed, err := codec.SealMessage(&domain.MessagePayload{
		Content: "secret details",
		Attachments: []domain.Attachment{
			{Name: "shot.png", ContentType: "image/png", URL: "https://cdn.example/shot.png"},
			{Name: "log.txt", ContentType: "text/plain", URL: "https://cdn.example/log.txt"},
		},
	})
	if err != nil {
		t.Fatalf("seal: %v", err)
	}

	alex := &domain.User{ID: "u-alex", Username: "alex", DisplayName: "Alex"}
	created := time.Date(2024, time.March, 5, 14, 7, 9, 0, time.UTC)
	closed := created.Add(time.Hour)
	return &domain.Ticket{
		ID:      ticketID,
		GuildID: "g1",
		Number:  42,
		Category: domain.Category{
			Name:        "Support",
			ChannelName: "ticket-{name}-{number}",
			StaffRoles:  []domain.RoleID{"staff"},
		},
		CreatedBy:        alex,
		CreatedAt:        created,
		ClosedAt:         &closed,
		Feedback:         &domain.Feedback{Rating: 3, Comment: "fine"},
		PinnedMessageIDs: []domain.MessageID{"m2", "m1"},
		Guild:            domain.Settings{GuildID: "g1", Locale: "en-GB", Archive: true, ErrorColour: "Red", Footer: "Support"},
		ArchivedMessages: []domain.ArchivedMessage{
			{ID: "m2", AuthorID: "u-alex", Author: alex, Sequence: 2, Content: sealed, CreatedAt: created.Add(time.Minute)},
			{ID: "m1", AuthorID: "u-alex", Author: alex, Sequence: 1, Content: `{"content":"<b>&\"'"}`, CreatedAt: created},
			{ID: "m3", AuthorID: "u-alex", Author: alex, Sequence: 3, Content: `{"content":"removed later"}`, Deleted: true, CreatedAt: created.Add(2 * time.Minute)},
			{ID: "m4", AuthorID: "relay", Sequence: 4, Content: `{"content":"from outside"}`, External: true, CreatedAt: created.Add(3 * time.Minute)},
		},
	}
}

type harness struct {
	pipeline *Pipeline
	repo     *fakeRepo
	gateway  *fakeGateway
}

func newHarness(t *testing.T, sources render.Sources) *harness {
	t.Helper()
	codec, err := crypto.NewCodec("test-secret")
	if err != nil {
		t.Fatal(err)
	}
	catalog, err := locale.NewCatalog()
	if err != nil {
		t.Fatal(err)
	}
	cryptoPool := workerpool.New("crypto", 1, 4, nil)
	transcriptPool := workerpool.New("transcript", 1, 4, nil)
	t.Cleanup(cryptoPool.Close)
	t.Cleanup(transcriptPool.Close)

	repo := &fakeRepo{
		tickets: map[domain.TicketID]*domain.Ticket{ticketID: fixture(t, codec)},
		settings: map[domain.GuildID]*domain.Settings{
			"g1": {GuildID: "g1", Locale: "de"},
		},
	}
	gateway := &fakeGateway{members: map[domain.UserID]*domain.Member{
		"u-staff":    {UserID: "u-staff", GuildID: "g1", Roles: []domain.RoleID{"staff"}},
		"u-outsider": {UserID: "u-outsider", GuildID: "g1", Roles: []domain.RoleID{"member"}},
	}}

	p, err := New(Deps{
		Repo:           repo,
		Gateway:        gateway,
		Codec:          codec,
		CryptoPool:     cryptoPool,
		TranscriptPool: transcriptPool,
		Catalog:        catalog,
		Sources:        sources,
		Clock:          func() time.Time { return time.Date(2024, time.April, 1, 9, 0, 0, 0, time.UTC) },
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return &harness{pipeline: p, repo: repo, gateway: gateway}
}

func fullSources() render.Sources {
	return render.Sources{Name: "transcript.md", Extension: "md", Markdown: markdownTemplate, HTML: htmlTemplate}
}

func TestGenerate_RendersBothDocuments(t *testing.T) {
	h := newHarness(t, fullSources())
	ctx := context.Background()

	req, err := h.pipeline.ResolveRequester(ctx, "u-staff", "g1")
	if err != nil {
		t.Fatalf("ResolveRequester: %v", err)
	}
	res, err := h.pipeline.Generate(ctx, req, "42")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.Denied() {
		t.Fatalf("staff member was denied: %+v", res.Denial)
	}
	if got := h.repo.refs[0]; !got.ByNumber() || got.Number != 42 {
		t.Errorf("expected lookup by number, got %+v", got)
	}

	tr := res.Transcript
	if tr.FileNameMD != "ticket-alex-42.md" || tr.FileNameHTML != "ticket-alex-42.html" {
		t.Errorf("unexpected file names %q, %q", tr.FileNameMD, tr.FileNameHTML)
	}
	if docs := tr.Documents(); len(docs) != 2 {
		t.Fatalf("expected two documents, got %d", len(docs))
	}

	md := string(tr.Markdown)
	for _, want := range []string{
		"# ticket-alex-42",
		"Created Tuesday, 5 March 2024 14:07:09 UTC",
		"Pinned: m2, m1",
		`[m1] alex: <b>&"'`,
		"[m2] alex: secret details",
		"[m3] alex: removed later (deleted)",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
	if strings.Contains(md, "from outside") {
		t.Error("external message rendered")
	}
	if !(strings.Index(md, "[m1]") < strings.Index(md, "[m2]") && strings.Index(md, "[m2]") < strings.Index(md, "[m3]")) {
		t.Errorf("messages out of order:\n%s", md)
	}

	html := string(tr.HTML)
	if !strings.Contains(html, "&lt;b&gt;&amp;&quot;&#39;") || strings.Contains(html, `<b>&"'`) {
		t.Errorf("markup output not escaped:\n%s", html)
	}
	if strings.Count(html, "★") != 3 || strings.Count(html, "☆") != 2 {
		t.Errorf("expected 3 filled and 2 empty rating units:\n%s", html)
	}
	if strings.Count(html, `class="pinned"`) != 2 {
		t.Errorf("expected two pinned messages:\n%s", html)
	}
	if strings.Count(html, "<img") != 1 || !strings.Contains(html, "https://cdn.example/shot.png") {
		t.Errorf("expected exactly the image attachment inline:\n%s", html)
	}
	if strings.Contains(html, "from outside") {
		t.Error("external message rendered in markup")
	}
	if !strings.Contains(html, "Monday, 1 April 2024 09:00:00 UTC") {
		t.Errorf("generated-at timestamp missing:\n%s", html)
	}
}

func TestGenerate_Idempotent(t *testing.T) {
	h := newHarness(t, fullSources())
	req := access.Requester{UserID: "u-alex"}

	first, err := h.pipeline.Generate(context.Background(), req, ticketID.String())
	if err != nil {
		t.Fatal(err)
	}
	second, err := h.pipeline.Generate(context.Background(), req, ticketID.String())
	if err != nil {
		t.Fatal(err)
	}
	if string(first.Transcript.Markdown) != string(second.Transcript.Markdown) {
		t.Error("markdown differs between renders")
	}
	if string(first.Transcript.HTML) != string(second.Transcript.HTML) {
		t.Error("markup differs between renders")
	}
}

func TestGenerate_CreatorOutsideGuild(t *testing.T) {
	h := newHarness(t, fullSources())
	res, err := h.pipeline.Generate(context.Background(), access.Requester{UserID: "u-alex"}, ticketID.String())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.Denied() {
		t.Fatal("creator should always see their ticket")
	}
	if h.repo.refs[0].ID != ticketID {
		t.Errorf("expected lookup by id, got %+v", h.repo.refs[0])
	}
}

func TestGenerate_Denied(t *testing.T) {
	h := newHarness(t, fullSources())
	ctx := context.Background()

	req, err := h.pipeline.ResolveRequester(ctx, "u-outsider", "g1")
	if err != nil {
		t.Fatal(err)
	}
	res, err := h.pipeline.Generate(ctx, req, "42")
	if err != nil {
		t.Fatalf("denial should not be an error: %v", err)
	}
	if !res.Denied() || res.Transcript != nil {
		t.Fatalf("expected denial only, got %+v", res)
	}
	if !strings.Contains(res.Denial.Title, "Transkript") {
		t.Errorf("expected notice in the requester guild locale, got %q", res.Denial.Title)
	}
	if res.Denial.Colour != "Red" || res.Denial.Footer != "Support" {
		t.Errorf("notice not styled for the ticket guild: %+v", res.Denial)
	}
}

func TestGenerate_NotFound(t *testing.T) {
	h := newHarness(t, fullSources())
	for _, ref := range []string{"77", "123456789012345678", ""} {
		_, err := h.pipeline.Generate(context.Background(), access.Requester{UserID: "u-staff", GuildID: "g1"}, ref)
		if !apperrors.IsCode(err, apperrors.CodeNotFound) {
			t.Errorf("ref %q: expected NOT_FOUND, got %v", ref, err)
		}
	}
}

func TestGenerate_WithoutMarkupTemplate(t *testing.T) {
	sources := fullSources()
	sources.HTML = ""
	h := newHarness(t, sources)

	res, err := h.pipeline.Generate(context.Background(), access.Requester{UserID: "u-alex"}, ticketID.String())
	if err != nil {
		t.Fatal(err)
	}
	docs := res.Transcript.Documents()
	if len(docs) != 1 || docs[0].Name != "ticket-alex-42.md" {
		t.Errorf("expected markdown only, got %+v", docs)
	}
}

func TestNew_ConfigurationErrors(t *testing.T) {
	codec, _ := crypto.NewCodec("k")
	catalog, _ := locale.NewCatalog()
	pool := workerpool.New("p", 1, 1, nil)
	defer pool.Close()

	base := Deps{Repo: &fakeRepo{}, Codec: codec, CryptoPool: pool, TranscriptPool: pool, Catalog: catalog}

	tests := map[string]render.Sources{
		"empty markdown":   {Name: "transcript.md"},
		"invalid markdown": {Name: "transcript.md", Markdown: "{{.Broken"},
		"invalid markup":   {Name: "transcript.md", Markdown: "ok", HTML: "{{end}}"},
	}
	for name, sources := range tests {
		t.Run(name, func(t *testing.T) {
			deps := base
			deps.Sources = sources
			if _, err := New(deps); !apperrors.IsCode(err, apperrors.CodeConfiguration) {
				t.Errorf("expected CONFIGURATION_FATAL, got %v", err)
			}
		})
	}
}

func TestParseRef(t *testing.T) {
	tests := []struct {
		guild    domain.GuildID
		ref      string
		byNumber bool
	}{
		{"g1", "42", true},
		{"g1", " 7 ", true},
		{"g1", "123456789012345678", false},
		{"g1", "abc", false},
		{"", "42", false},
	}
	for _, tt := range tests {
		if got := ParseRef(tt.guild, tt.ref); got.ByNumber() != tt.byNumber {
			t.Errorf("ParseRef(%q, %q) = %+v", tt.guild, tt.ref, got)
		}
	}
}

func TestRatingUnits(t *testing.T) {
	tests := []struct {
		rating, filled, empty int
	}{
		{1, 1, 4},
		{3, 3, 2},
		{5, 5, 0},
		{9, 5, 0},
	}
	for _, tt := range tests {
		filled, empty := ratingUnits(tt.rating)
		if len(filled) != tt.filled || len(empty) != tt.empty {
			t.Errorf("rating %d: got %d/%d", tt.rating, len(filled), len(empty))
		}
	}
}

func TestGenerate_ShippedTemplates(t *testing.T) {
	sources, err := render.LoadSources("../../templates", "transcript.md", true)
	if err != nil {
		t.Fatalf("LoadSources: %v", err)
	}
	h := newHarness(t, sources)

	res, err := h.pipeline.Generate(context.Background(), access.Requester{UserID: "u-alex"}, ticketID.String())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	md := string(res.Transcript.Markdown)
	for _, want := range []string{"# #ticket-alex-42 (Support Server)", "| Rating | 3/5 (fine) |", "secret details", "- [log.txt](https://cdn.example/log.txt)"} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
	html := string(res.Transcript.HTML)
	if strings.Count(html, `class="filled"`) != 3 || strings.Count(html, `class="empty"`) != 2 {
		t.Errorf("unexpected rating units:\n%s", html)
	}
	if !strings.Contains(html, "&lt;b&gt;&amp;&quot;&#39;") {
		t.Errorf("markup output not escaped:\n%s", html)
	}
}

func TestGenerate_GatewayUnavailable(t *testing.T) {
	h := newHarness(t, fullSources())
	h.gateway.err = errors.New("platform: circuit breaker is open")
	ctx := context.Background()

	creator, err := h.pipeline.ResolveRequester(ctx, "u-alex", "g1")
	if err != nil {
		t.Fatalf("ResolveRequester for creator: %v", err)
	}
	if creator.Member != nil {
		t.Errorf("expected no membership when the platform is down, got %+v", creator.Member)
	}
	res, err := h.pipeline.Generate(ctx, creator, "42")
	if err != nil {
		t.Fatalf("Generate for creator: %v", err)
	}
	if res.Denied() || res.Transcript == nil {
		t.Fatalf("creator should still get the transcript, got %+v", res)
	}

	staff, err := h.pipeline.ResolveRequester(ctx, "u-staff", "g1")
	if err != nil {
		t.Fatalf("ResolveRequester for staff: %v", err)
	}
	res, err = h.pipeline.Generate(ctx, staff, "42")
	if err != nil {
		t.Fatalf("Generate for staff: %v", err)
	}
	if !res.Denied() {
		t.Error("unverified staff membership should be denied")
	}
}

func TestResolveRequester_CancelledContext(t *testing.T) {
	h := newHarness(t, fullSources())
	h.gateway.err = context.Canceled
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := h.pipeline.ResolveRequester(ctx, "u-staff", "g1"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
