package httptransport

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vigil/internal/schedule"
	"vigil/pkg/domain"
	"vigil/pkg/testutil"
)

func TestHandleReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "timetable.csv")
	write := func(content string) {
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	write("day,start,end,subject,responsible,location\nMon,9:00,10:00,mathematics,supervisor,room-s1\n")

	table := schedule.NewTable(nil)
	h := NewScheduleHandler(table, path, slog.New(slog.NewTextHandler(io.Discard, nil)))
	r := chi.NewRouter()
	h.Register(r)
	resolver := schedule.NewResolver(table)

	do := func() *httptest.ResponseRecorder {
		return testutil.DoRequest(r, testutil.NewRequest(t, http.MethodPost, "/schedule/reload"))
	}

	testutil.Given(t, "a valid timetable file", func(t *testing.T) {
		testutil.When(t, "reload is requested", func(t *testing.T) {
			w := do()
			testutil.AssertStatusOK(t, w)
			assert.NotNil(t, resolver.Resolve(domain.Attributes{}, schedule.Mon, 9*60+30))
		})
	})

	testutil.Given(t, "a broken timetable file", func(t *testing.T) {
		write("day,start,end,subject,responsible,location\nMon,bad,10:00,mathematics,supervisor,room-s1\n")

		testutil.When(t, "reload is requested", func(t *testing.T) {
			// The file is rejected whole; the previous timetable stays live.
			w := do()
			testutil.AssertStatus(t, w, http.StatusInternalServerError)
			testutil.AssertErrorCode(t, w, "config")
			assert.NotNil(t, resolver.Resolve(domain.Attributes{}, schedule.Mon, 9*60+30))
		})
	})
}
