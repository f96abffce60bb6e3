package web

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/BenWCode/MuseApp/internal/errors"
	"github.com/BenWCode/MuseApp/internal/ingest"
	"github.com/BenWCode/MuseApp/internal/item"
)

// maxUploadBytes bounds a single import or ingest request body.
const maxUploadBytes = 256 << 20

// Handlers contains HTTP route handlers for the web UI.
type Handlers struct {
	deps     Deps
	renderer *Renderer
}

// HandleGallery handles GET /gallery — the full item listing.
func (h *Handlers) HandleGallery(w http.ResponseWriter, r *http.Request) {
	h.renderer.renderPage(w, r, "gallery", GalleryPageData{
		PageData: PageData{
			Title:   "Gallery",
			Version: h.renderer.version,
			Nav:     "gallery",
		},
		Items:  h.deps.Gallery.Items(),
		Span:   h.deps.Gallery.Span(),
		Notice: r.URL.Query().Get("notice"),
	})
}

// HandleDetail handles GET /items/{id} — one item, with text bodies
// rendered as markdown.
func (h *Handlers) HandleDetail(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	it := h.findItem(id)
	if it == nil {
		h.renderer.renderError(w, r, errors.NewNotFound(id))
		return
	}

	data := DetailPageData{
		PageData: PageData{
			Title:   it.FileName,
			Version: h.renderer.version,
			Nav:     "gallery",
		},
		Item:         it,
		ShowLocation: it.Location != item.LocationUnknown && it.Location != item.LocationDefault,
	}
	if it.Kind == item.KindText {
		data.RenderedHTML = renderMarkdown(it.TextContent)
	}
	h.renderer.renderPage(w, r, "detail", data)
}

// HandleImage handles GET /items/{id}/image — the raw image payload,
// resolved from memory or the blob store.
func (h *Handlers) HandleImage(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	it := h.findItem(id)
	if it == nil || it.Kind != item.KindImage {
		h.renderer.renderError(w, r, errors.NewNotFound(id))
		return
	}

	data := it.Data
	if len(data) == 0 && it.HasBlob && h.deps.Blobs != nil {
		resolved, err := h.deps.Blobs.Resolve(id)
		if err != nil {
			h.renderer.renderError(w, r, err)
			return
		}
		data = resolved
	}
	if len(data) == 0 {
		h.renderer.renderError(w, r, errors.NewNotFound(id))
		return
	}

	if it.FileType != "" {
		w.Header().Set("Content-Type", it.FileType)
	}
	w.Header().Set("Cache-Control", "private, max-age=3600")
	_, _ = w.Write(data)
}

// HandleWriteText handles POST /items/text — a typed entry from the
// write form.
func (h *Handlers) HandleWriteText(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("malformed form"))
		return
	}
	out, err := h.deps.Pipeline.IngestText(r.Context(), r.PostFormValue("content"))
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	http.Redirect(w, r, "/items/"+out.ID, http.StatusSeeOther)
}

// HandleIngest handles POST /ingest — multipart file upload into the
// collection.
func (h *Handlers) HandleIngest(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("malformed upload"))
		return
	}

	var sources []ingest.Source
	for _, headers := range r.MultipartForm.File {
		for _, fh := range headers {
			f, err := fh.Open()
			if err != nil {
				h.renderer.renderError(w, r, errors.NewInternal(err))
				return
			}
			data, err := io.ReadAll(f)
			f.Close()
			if err != nil {
				h.renderer.renderError(w, r, errors.NewInternal(err))
				return
			}
			sources = append(sources, ingest.Source{
				Name:    fh.Filename,
				ModTime: modTimeFromHeader(fh.Header.Get("Last-Modified")),
				Data:    data,
			})
		}
	}

	out, err := h.deps.Pipeline.IngestFiles(r.Context(), sources)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}

// HandleExport handles GET /export — the archive download.
func (h *Handlers) HandleExport(w http.ResponseWriter, r *http.Request) {
	name := fmt.Sprintf("museum-%s.zip", time.Now().UTC().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	if err := h.deps.Codec.ExportArchive(w); err != nil {
		// Headers are out; all that is left is to log.
		h.renderer.renderError(w, r, err)
	}
}

// HandleImport handles POST /import — an uploaded save in any supported
// generation.
func (h *Handlers) HandleImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("malformed upload"))
		return
	}
	f, _, err := r.FormFile("save")
	if err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("missing save file"))
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		h.renderer.renderError(w, r, errors.NewInternal(err))
		return
	}

	out, err := h.deps.Codec.Import(r.Context(), data)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}

// HandleSaveLocal handles POST /save-local.
func (h *Handlers) HandleSaveLocal(w http.ResponseWriter, r *http.Request) {
	out, err := h.deps.Codec.SaveLocal(r.Context())
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}

// HandleLoadLocal handles POST /load-local.
func (h *Handlers) HandleLoadLocal(w http.ResponseWriter, r *http.Request) {
	out, err := h.deps.Codec.LoadLocal(r.Context())
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}

func (h *Handlers) findItem(id string) *item.Item {
	for _, it := range h.deps.Gallery.Items() {
		if it.ID == id {
			return it
		}
	}
	return nil
}

// modTimeFromHeader parses the optional Last-Modified part header some
// clients attach; zero time when absent or unparseable.
func modTimeFromHeader(v string) time.Time {
	if v == "" {
		return time.Time{}
	}
	t, err := http.ParseTime(v)
	if err != nil {
		return time.Time{}
	}
	return t
}
