// Package pipeline maps raw rows onto graph entities and edges.
//
// Each row is processed independently: its mapped namespaces become nodes
// with stable IDs, the nodes are linked by a fixed topology, and an optional
// ledger entry fingerprints the row. A failing row is recorded and skipped;
// there is no transaction spanning the batch.
package pipeline

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/araddon/dateparse"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/yungbote/casegraph-backend/internal/data/graph"
	"github.com/yungbote/casegraph-backend/internal/data/identity"
	types "github.com/yungbote/casegraph-backend/internal/domain"
	"github.com/yungbote/casegraph-backend/internal/ingestion/mapping"
	"github.com/yungbote/casegraph-backend/internal/ingestion/rows"
	"github.com/yungbote/casegraph-backend/internal/platform/dbctx"
	"github.com/yungbote/casegraph-backend/internal/platform/logger"
)

const edgeStep = "ingest:edge"

type Ledger interface {
	Record(dbc dbctx.Context, entry *types.ProvenanceLedgerEntry) (*types.ProvenanceLedgerEntry, error)
}

type Config struct {
	// AllowRandomIDs lets a namespace without a natural key fall back to a
	// random ID. Re-ingesting such rows creates duplicates.
	AllowRandomIDs bool
	LedgerEnabled  bool
}

type Batch struct {
	TenantID   string
	CaseID     string
	Actor      string
	Source     string
	Mapping    mapping.Mapping
	Provenance types.Provenance
	Policy     types.Policy
	Rows       []rows.Row
}

type Result struct {
	Ingested int              `json:"ingested"`
	Failed   int              `json:"failed"`
	NodeIDs  []string         `json:"nodeIds"`
	EdgeIDs  []string         `json:"edgeIds"`
	Errors   []types.RowError `json:"errors,omitempty"`
}

type Pipeline struct {
	store  graph.Store
	ledger Ledger
	log    *logger.Logger
	cfg    Config
}

// New builds a pipeline; ledger may be nil.
func New(store graph.Store, ledger Ledger, log *logger.Logger, cfg Config) *Pipeline {
	return &Pipeline{
		store:  store,
		ledger: ledger,
		log:    log.With("service", "IngestPipeline"),
		cfg:    cfg,
	}
}

// Run ingests every row of b. Row failures do not stop the batch; when any
// row fails the returned error is a *types.PartialIngestionError and the
// Result is still populated.
func (p *Pipeline) Run(ctx context.Context, b Batch) (*Result, error) {
	if b.TenantID == "" {
		return nil, types.NewValidationError("tenantId", "required")
	}
	if b.CaseID == "" {
		return nil, types.NewValidationError("caseId", "required")
	}
	if b.Mapping.IsZero() {
		return nil, types.NewValidationError("mapping", "required")
	}

	ctx, span := otel.Tracer("casegraph/ingestion").Start(ctx, "pipeline.Run")
	defer span.End()
	span.SetAttributes(
		attribute.String("tenant_id", b.TenantID),
		attribute.String("case_id", b.CaseID),
		attribute.Int("rows", len(b.Rows)),
	)

	res := &Result{NodeIDs: []string{}, EdgeIDs: []string{}}
	seenNodes := map[string]struct{}{}
	seenEdges := map[string]struct{}{}
	for i, row := range b.Rows {
		rowNum := i + 1
		nodeIDs, edgeIDs, err := p.ingestRow(ctx, b, row)
		if err != nil {
			res.Failed++
			res.Errors = append(res.Errors, types.RowError{Row: rowNum, Err: err, Msg: err.Error()})
			p.log.Warn("ingest row failed", "row", rowNum, "tenant_id", b.TenantID, "case_id", b.CaseID, "error", err)
			continue
		}
		res.Ingested++
		for _, id := range nodeIDs {
			if _, ok := seenNodes[id]; !ok {
				seenNodes[id] = struct{}{}
				res.NodeIDs = append(res.NodeIDs, id)
			}
		}
		for _, id := range edgeIDs {
			if _, ok := seenEdges[id]; !ok {
				seenEdges[id] = struct{}{}
				res.EdgeIDs = append(res.EdgeIDs, id)
			}
		}
		if p.cfg.LedgerEnabled && p.ledger != nil {
			p.record(ctx, b, row, nodeIDs)
		}
	}

	p.log.Info("ingest batch done",
		"tenant_id", b.TenantID,
		"case_id", b.CaseID,
		"actor", b.Actor,
		"ingested", res.Ingested,
		"failed", res.Failed,
	)
	if len(res.Errors) > 0 {
		span.SetStatus(codes.Error, "partial ingestion")
		return res, &types.PartialIngestionError{Errors: res.Errors}
	}
	return res, nil
}

func (p *Pipeline) ingestRow(ctx context.Context, b Batch, row rows.Row) ([]string, []string, error) {
	entities := map[types.Kind]*types.Node{}
	for _, kind := range b.Mapping.Namespaces() {
		n, err := p.buildNode(ctx, b, kind, row)
		if err != nil {
			return nil, nil, err
		}
		if n != nil {
			entities[kind] = n
		}
	}
	if len(entities) == 0 {
		return nil, nil, types.NewValidationError("row", "no mapped values")
	}

	nodeIDs := make([]string, 0, len(entities))
	for _, kind := range types.AllKinds {
		n, ok := entities[kind]
		if !ok {
			continue
		}
		id, err := p.store.UpsertNode(ctx, n)
		if err != nil {
			return nil, nil, fmt.Errorf("upsert %s: %w", kind.Prefix(), err)
		}
		nodeIDs = append(nodeIDs, id)
	}

	var edgeIDs []string
	for _, link := range topology(entities) {
		e := &types.Edge{
			TenantID:   b.TenantID,
			CaseID:     b.CaseID,
			SourceID:   link.source,
			TargetID:   link.target,
			Type:       link.typ,
			Provenance: b.Provenance.WithStep(edgeStep),
			Policy:     b.Policy.Normalized(),
			CreatedBy:  b.Actor,
		}
		id, err := p.store.UpsertEdge(ctx, e)
		if err != nil {
			return nil, nil, fmt.Errorf("upsert %s edge: %w", link.typ, err)
		}
		edgeIDs = append(edgeIDs, id)
	}
	return nodeIDs, edgeIDs, nil
}

type link struct {
	source string
	typ    types.EdgeType
	target string
}

// topology links the entities of one row: Person->Org, Person->Event,
// Event->Location and Document->everything else present.
func topology(entities map[types.Kind]*types.Node) []link {
	var out []link
	add := func(from types.Kind, typ types.EdgeType, to types.Kind) {
		src, ok1 := entities[from]
		tgt, ok2 := entities[to]
		if ok1 && ok2 && src.ID != tgt.ID {
			out = append(out, link{source: src.ID, typ: typ, target: tgt.ID})
		}
	}
	add(types.KindPerson, types.EdgeAffiliatedWith, types.KindOrg)
	add(types.KindPerson, types.EdgePresentAt, types.KindEvent)
	add(types.KindEvent, types.EdgeOccurredAt, types.KindLocation)
	for _, k := range []types.Kind{types.KindPerson, types.KindOrg, types.KindEvent, types.KindLocation} {
		add(types.KindDocument, types.EdgeMentions, k)
	}
	return out
}

// buildNode returns nil when the namespace has no values in this row.
func (p *Pipeline) buildNode(ctx context.Context, b Batch, kind types.Kind, row rows.Row) (*types.Node, error) {
	vals := map[string]string{}
	for field, col := range b.Mapping.Fields(kind) {
		if v := row.Get(col); v != "" {
			vals[field] = v
		}
	}
	if len(vals) == 0 {
		return nil, nil
	}

	attrs, keyParts, err := buildAttrs(kind, vals)
	if err != nil {
		return nil, err
	}

	var id string
	if kind == types.KindPerson {
		id, err = p.knownPerson(ctx, b, attrs.(types.PersonAttrs))
		if err != nil {
			return nil, err
		}
	}
	if id == "" {
		if !identity.HasNaturalKey(keyParts...) && !p.cfg.AllowRandomIDs {
			return nil, types.NewValidationError(kind.Prefix(), "no natural key in row")
		}
		id = identity.Derive(kind.Prefix(), b.TenantID, b.CaseID, keyParts...)
	}

	return &types.Node{
		ID:         id,
		TenantID:   b.TenantID,
		CaseID:     b.CaseID,
		Kind:       kind,
		Attrs:      attrs,
		Provenance: b.Provenance.WithStep("ingest:" + kind.Prefix()),
		Policy:     b.Policy.Normalized(),
		CreatedBy:  b.Actor,
	}, nil
}

// knownPerson reuses an existing Person reachable by any of the row's emails,
// then phones.
func (p *Pipeline) knownPerson(ctx context.Context, b Batch, a types.PersonAttrs) (string, error) {
	lookups := make([]types.Contact, 0, len(a.Emails)+len(a.Phones))
	for _, e := range a.Emails {
		lookups = append(lookups, types.Contact{Email: e})
	}
	for _, ph := range a.Phones {
		lookups = append(lookups, types.Contact{Phone: ph})
	}
	for _, c := range lookups {
		n, err := p.store.FindPersonByContact(ctx, c, b.TenantID, b.CaseID)
		if err != nil {
			return "", fmt.Errorf("find person: %w", err)
		}
		if n != nil {
			return n.ID, nil
		}
	}
	return "", nil
}

// buildAttrs parses the mapped values of one namespace and returns the
// natural-key parts used for the ID.
func buildAttrs(kind types.Kind, v map[string]string) (types.Attrs, []string, error) {
	switch kind {
	case types.KindPerson:
		a := types.PersonAttrs{
			Name:        v[mapping.FieldName],
			Emails:      types.SplitContacts(v[mapping.FieldEmail], types.NormalizeEmail),
			Phones:      types.SplitContacts(v[mapping.FieldPhone], types.NormalizePhone),
			Nationality: v[mapping.FieldNationality],
		}
		return a, []string{firstNonEmpty(first(a.Emails), first(a.Phones), a.Name)}, nil
	case types.KindOrg:
		a := types.OrgAttrs{Name: v[mapping.FieldName], Domain: v[mapping.FieldDomain]}
		return a, []string{firstNonEmpty(a.Domain, a.Name)}, nil
	case types.KindLocation:
		a := types.LocationAttrs{Name: v[mapping.FieldName]}
		var err error
		if a.Lat, err = parseCoord(mapping.FieldLat, v[mapping.FieldLat], 90); err != nil {
			return nil, nil, err
		}
		if a.Lon, err = parseCoord(mapping.FieldLon, v[mapping.FieldLon], 180); err != nil {
			return nil, nil, err
		}
		if (a.Lat == nil) != (a.Lon == nil) {
			return nil, nil, types.NewValidationError("location", "lat and lon must be given together")
		}
		if a.Name != "" || !a.HasCoordinates() {
			return a, []string{a.Name}, nil
		}
		return a, []string{v[mapping.FieldLat], v[mapping.FieldLon]}, nil
	case types.KindEvent:
		a := types.EventAttrs{Name: v[mapping.FieldName]}
		raw := v[mapping.FieldOccurredAt]
		if raw != "" {
			t, err := dateparse.ParseIn(raw, time.UTC)
			if err != nil {
				return nil, nil, types.NewValidationError("event.occurred_at", fmt.Sprintf("unparseable time %q", raw))
			}
			t = t.UTC()
			a.OccurredAt = &t
			raw = t.Format(time.RFC3339Nano)
		}
		return a, []string{a.Name, raw}, nil
	case types.KindDocument:
		a := types.DocumentAttrs{Title: v[mapping.FieldTitle], URL: v[mapping.FieldURL], Hash: v[mapping.FieldHash]}
		return a, []string{firstNonEmpty(a.URL, a.Hash, a.Title)}, nil
	default:
		return nil, nil, types.NewValidationError("kind", fmt.Sprintf("unknown kind %q", kind))
	}
}

func parseCoord(field, raw string, bound float64) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, types.NewValidationError("location."+field, fmt.Sprintf("not a number: %q", raw))
	}
	if f < -bound || f > bound {
		return nil, types.NewValidationError("location."+field, fmt.Sprintf("%v out of range", f))
	}
	return &f, nil
}

func (p *Pipeline) record(ctx context.Context, b Batch, row rows.Row, nodeIDs []string) {
	ids, err := jsonIDs(nodeIDs)
	if err != nil {
		p.log.Warn("ledger encode failed", "error", err)
		return
	}
	source := b.Source
	if source == "" {
		source = b.Provenance.Source
	}
	_, err = p.ledger.Record(dbctx.Of(ctx), &types.ProvenanceLedgerEntry{
		TenantID:    b.TenantID,
		CaseID:      b.CaseID,
		RowHash:     row.Hash(),
		MappingHash: b.Mapping.Hash(),
		Actor:       b.Actor,
		Source:      source,
		NodeIDs:     ids,
	})
	if err != nil {
		p.log.Warn("ledger record failed (continuing)", "tenant_id", b.TenantID, "case_id", b.CaseID, "error", err)
	}
}

func first(s []string) string {
	if len(s) == 0 {
		return ""
	}
	return s[0]
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
