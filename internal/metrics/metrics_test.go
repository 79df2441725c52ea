package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/OFFIS-RIT/ned/pkg/oracle"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

type stubOracle struct{ err error }

func (s stubOracle) GetCandidates(context.Context, string) ([]string, error) {
	return []string{"A"}, s.err
}

func (s stubOracle) OutgoingLinks(context.Context, string) (oracle.LinkSet, error) {
	return oracle.NewLinkSet("B"), s.err
}

func (s stubOracle) BacklinkPage(context.Context, string, string) (oracle.BacklinkPage, error) {
	return oracle.BacklinkPage{Count: 1}, s.err
}

func TestInstrument_CountsOutcomes(t *testing.T) {
	tests := []struct {
		err     error
		outcome string
	}{
		{nil, "ok"},
		{oracle.ErrTransient, "transient"},
		{fmt.Errorf("wrapped: %w", oracle.ErrMalformed), "malformed"},
		{context.Canceled, "cancelled"},
		{errors.New("other"), "error"},
	}
	for _, tt := range tests {
		t.Run(tt.outcome, func(t *testing.T) {
			o := Instrument(oracle.Oracles{Candidates: stubOracle{tt.err}, Links: stubOracle{tt.err}, Popularity: stubOracle{tt.err}})
			for _, kind := range []string{"candidates", "links", "backlinks"} {
				before := testutil.ToFloat64(OracleRequests.WithLabelValues(kind, tt.outcome))
				var err error
				switch kind {
				case "candidates":
					_, err = o.Candidates.GetCandidates(context.Background(), "m")
				case "links":
					_, err = o.Links.OutgoingLinks(context.Background(), "t")
				case "backlinks":
					_, err = o.Popularity.BacklinkPage(context.Background(), "t", "")
				}
				if !errors.Is(err, tt.err) {
					t.Fatalf("decorator changed the error: %v", err)
				}
				after := testutil.ToFloat64(OracleRequests.WithLabelValues(kind, tt.outcome))
				if after != before+1 {
					t.Fatalf("%s/%s: counter %v -> %v", kind, tt.outcome, before, after)
				}
			}
		})
	}
}

func TestInstrument_NilMembers(t *testing.T) {
	o := Instrument(oracle.Oracles{})
	if o.Candidates != nil || o.Links != nil || o.Popularity != nil {
		t.Fatal("nil oracles must stay nil")
	}
}

func TestRecordDocument(t *testing.T) {
	before := testutil.ToFloat64(DocumentsProcessed.WithLabelValues("failed"))
	RecordDocument(errors.New("x"), time.Second)
	if got := testutil.ToFloat64(DocumentsProcessed.WithLabelValues("failed")); got != before+1 {
		t.Fatalf("failed counter = %v, want %v", got, before+1)
	}
}

func TestHandler(t *testing.T) {
	RecordDocument(nil, time.Millisecond)
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "ned_documents_processed_total") {
		t.Fatalf("metrics output missing counter: %d", rec.Code)
	}
}
