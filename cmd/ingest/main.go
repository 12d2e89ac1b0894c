package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/yungbote/casegraph-backend/internal/app"
	types "github.com/yungbote/casegraph-backend/internal/domain"
	"github.com/yungbote/casegraph-backend/internal/ingestion/mapping"
	"github.com/yungbote/casegraph-backend/internal/ingestion/rows"
	"github.com/yungbote/casegraph-backend/internal/services"
)

type stringList []string

func (l *stringList) String() string { return strings.Join(*l, ",") }
func (l *stringList) Set(v string) error {
	v = strings.TrimSpace(v)
	if v != "" {
		*l = append(*l, v)
	}
	return nil
}

func main() {
	var (
		file, mappingFile, format string
		tenantID, caseID, actor   string
		source                    string
		clearances                stringList
		dryRun                    bool
	)
	flag.StringVar(&file, "file", "", "CSV or JSON file to ingest")
	flag.StringVar(&mappingFile, "mapping", "", "YAML or JSON mapping file")
	flag.StringVar(&format, "format", "", "csv or json (default: from file extension)")
	flag.StringVar(&tenantID, "tenant", "", "tenant id")
	flag.StringVar(&caseID, "case", "", "case id")
	flag.StringVar(&actor, "actor", "cli", "actor recorded in provenance and audit log")
	flag.StringVar(&source, "source", "", "provenance source (default: file name)")
	flag.Var(&clearances, "clearance", "clearance label applied to every fact (repeatable)")
	flag.BoolVar(&dryRun, "dry-run", false, "parse and validate without writing")
	flag.Parse()

	if file == "" || mappingFile == "" || tenantID == "" || caseID == "" {
		flag.Usage()
		os.Exit(2)
	}

	rawMapping, err := os.ReadFile(mappingFile)
	if err != nil {
		fmt.Printf("read mapping: %v\n", err)
		os.Exit(1)
	}
	m, err := mapping.Parse(rawMapping)
	if err != nil {
		fmt.Printf("invalid mapping: %v\n", err)
		os.Exit(1)
	}
	data, err := os.ReadFile(file)
	if err != nil {
		fmt.Printf("read input: %v\n", err)
		os.Exit(1)
	}
	if format == "" {
		format = strings.TrimPrefix(strings.ToLower(filepath.Ext(file)), ".")
	}
	input, err := rows.Read(format, data)
	if err != nil {
		fmt.Printf("parse input: %v\n", err)
		os.Exit(1)
	}
	if source == "" {
		source = filepath.Base(file)
	}

	if dryRun {
		fmt.Printf("[dry-run] %d rows, namespaces=%v, mapping=%s\n", len(input), m.Namespaces(), m.Hash()[:12])
		return
	}

	ctx := context.Background()
	application, err := app.New(ctx)
	if err != nil {
		fmt.Printf("init app: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	principal := types.Principal{UserID: actor, TenantID: tenantID, Clearances: clearances}
	res, err := application.Services.Ingest.Ingest(ctx, principal, services.IngestRequest{
		CaseID:     caseID,
		Source:     source,
		Mapping:    m,
		Provenance: types.Provenance{Source: source},
		Policy:     types.Policy{Clearance: clearances},
		Rows:       input,
	})
	var partial *types.PartialIngestionError
	if err != nil && !errors.As(err, &partial) {
		fmt.Printf("ingest failed: %v\n", err)
		application.Close()
		os.Exit(1)
	}
	for _, re := range res.Errors {
		fmt.Printf("row %d: %s\n", re.Row, re.Msg)
	}
	fmt.Printf("done; ingested=%d failed=%d nodes=%d edges=%d\n", res.Ingested, res.Failed, len(res.NodeIDs), len(res.EdgeIDs))
	if partial != nil {
		application.Close()
		os.Exit(3)
	}
}
