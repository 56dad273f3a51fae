package catalog

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const maxUploadBytes = 10 << 20

func Routes(s *Store, mediaDir string, log *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Get("/{type}", listByType(s))
	r.Post("/", upsertEntry(s))
	r.Put("/{id}", updateEntry(s))
	r.Patch("/{id}/hp", updateHP(s))
	r.Delete("/{id}", deleteEntry(s))
	r.Post("/bulk", bulkImport(s))
	r.Post("/upload-image", uploadImage(mediaDir, log))

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func listByType(s *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t := chi.URLParam(r, "type")
		if !ValidType(t) {
			writeError(w, http.StatusBadRequest, "type must be PC, NPC, or Monster")
			return
		}
		entries, err := s.ListByType(t)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, entries)
	}
}

func upsertEntry(s *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var e Entry
		if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
			writeError(w, http.StatusBadRequest, "bad json")
			return
		}
		e.Name = strings.TrimSpace(e.Name)
		if !ValidType(e.Type) || e.Name == "" {
			writeError(w, http.StatusBadRequest, "Invalid type or name")
			return
		}
		e.ID = 0
		if err := s.Upsert(e); err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusCreated, map[string]bool{"ok": true})
	}
}

func updateEntry(s *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
		if err != nil || id == 0 {
			writeError(w, http.StatusBadRequest, "Invalid id")
			return
		}
		var e Entry
		if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
			writeError(w, http.StatusBadRequest, "bad json")
			return
		}
		e.Name = strings.TrimSpace(e.Name)
		if !ValidType(e.Type) || e.Name == "" {
			writeError(w, http.StatusBadRequest, "Invalid payload")
			return
		}
		e.ID = uint(id)
		if err := s.Update(e); err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	}
}

func updateHP(s *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
		if err != nil || id == 0 {
			writeError(w, http.StatusBadRequest, "Invalid id")
			return
		}
		var body struct {
			DefaultHealth *int `json:"default_health"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "bad json")
			return
		}
		if err := s.UpdateHP(uint(id), body.DefaultHealth); err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	}
}

func deleteEntry(s *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
		if err != nil || id == 0 {
			writeError(w, http.StatusBadRequest, "Invalid id")
			return
		}
		if err := s.Delete(uint(id)); err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	}
}

// bulkImport accepts either a bare JSON array of entries or an object with a
// "csv" field (naive name,hp,type lines) or a "json" field holding an encoded
// array. Rows with a bad type or empty name are dropped, not rejected.
func bulkImport(s *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(io.LimitReader(r.Body, maxUploadBytes))
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad body")
			return
		}

		rows := parseBulk(raw)
		if len(rows) == 0 {
			writeError(w, http.StatusBadRequest, "No rows")
			return
		}
		if err := s.InsertMany(rows); err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "count": len(rows)})
	}
}

func parseBulk(raw []byte) []Entry {
	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "[") {
		var rows []Entry
		if err := json.Unmarshal(raw, &rows); err != nil {
			return nil
		}
		return cleanRows(rows)
	}

	var body struct {
		CSV  string `json:"csv"`
		JSON string `json:"json"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil
	}
	if body.CSV != "" {
		return ParseCSV(body.CSV)
	}
	if body.JSON != "" {
		var rows []Entry
		if err := json.Unmarshal([]byte(body.JSON), &rows); err != nil {
			return nil
		}
		return cleanRows(rows)
	}
	return nil
}

// ParseCSV reads naive "name,hp,type" lines. Blank HP means no default.
func ParseCSV(csv string) []Entry {
	var rows []Entry
	for _, line := range strings.Split(strings.TrimSpace(csv), "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, ",", 3)
		if len(parts) != 3 {
			continue
		}
		name := strings.TrimSpace(parts[0])
		hpRaw := strings.TrimSpace(parts[1])
		typ := strings.TrimSpace(parts[2])
		if name == "" || !ValidType(typ) {
			continue
		}
		row := Entry{Type: typ, Name: name}
		if hpRaw != "" {
			if hp, err := strconv.Atoi(hpRaw); err == nil {
				row.DefaultHealth = &hp
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func cleanRows(rows []Entry) []Entry {
	out := rows[:0]
	for _, r := range rows {
		r.ID = 0
		r.Name = strings.TrimSpace(r.Name)
		if r.Name == "" || !ValidType(r.Type) {
			continue
		}
		out = append(out, r)
	}
	return out
}

var unsafeFilename = regexp.MustCompile(`[^\w.\-]`)

// SafeFilename sanitizes an uploaded name and stamps it so repeat uploads of
// the same file never collide.
func SafeFilename(original string, now time.Time) string {
	safe := unsafeFilename.ReplaceAllString(filepath.Base(original), "_")
	ext := filepath.Ext(safe)
	if ext == "" {
		ext = ".png"
	}
	base := strings.TrimSuffix(safe, ext)
	return fmt.Sprintf("%s_%d%s", base, now.UnixMilli(), ext)
}

// uploadImage stores a multipart "image" field under mediaDir/creatureimages
// and returns the public path the frontend can use.
func uploadImage(mediaDir string, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			writeError(w, http.StatusBadRequest, "No file")
			return
		}
		file, header, err := r.FormFile("image")
		if err != nil {
			writeError(w, http.StatusBadRequest, "No file")
			return
		}
		defer file.Close()

		dir := filepath.Join(mediaDir, "creatureimages")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Error("media dir create failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		name := SafeFilename(header.Filename, time.Now())
		dst, err := os.Create(filepath.Join(dir, name))
		if err != nil {
			log.Error("image create failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		defer dst.Close()
		if _, err := io.Copy(dst, file); err != nil {
			log.Error("image write failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusCreated, map[string]any{
			"ok":         true,
			"image_path": "/media/creatureimages/" + name,
		})
	}
}
