package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/soshbru/soshbru/pkg/common/errors"
	"github.com/soshbru/soshbru/pkg/places"
	"github.com/soshbru/soshbru/pkg/service"
)

const defaultSuggestLimit = 5

func handleError(c *gin.Context, err error) {
	appErr := errors.MapError(err)
	if appErr.Code >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	body := gin.H{"error": appErr.Message}
	if appErr.Err != nil && appErr.Code < http.StatusInternalServerError {
		body["detail"] = appErr.Err.Error()
	}
	c.JSON(appErr.Code, body)
}

// splitList reads a comma separated query parameter, also accepting the
// parameter repeated.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// handleFilters returns the filter catalog with per-filter counts.
func (s *Server) handleFilters(c *gin.Context) {
	opts, err := s.discovery.Filters(c.Request.Context(), c.Query("q"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, opts)
}

// handleCafes runs a one-shot search: ?q=&filters=a,b&mode=any|all.
func (s *Server) handleCafes(c *gin.Context) {
	res, err := s.discovery.Search(c.Request.Context(), service.SearchRequest{
		Query:   c.Query("q"),
		Filters: splitList(c.QueryArray("filters")),
		Mode:    c.Query("mode"),
	})
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// handleCafe returns one cafe with who is there and whether the caller
// saved it.
func (s *Server) handleCafe(c *gin.Context) {
	detail, err := s.discovery.Cafe(c.Request.Context(), c.Param("id"), userID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (s *Server) handleSuggest(c *gin.Context) {
	limit := defaultSuggestLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			handleError(c, errors.NewAppError(http.StatusBadRequest, "Invalid limit", errors.ErrInvalidInput))
			return
		}
		limit = n
	}
	got, err := s.discovery.Suggest(c.Request.Context(), c.Query("q"), limit)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"suggestions": got})
}

func (s *Server) handleCreateSession(c *gin.Context) {
	var req struct {
		Filters []string `json:"filters"`
		Mode    string   `json:"mode"`
		Query   string   `json:"query"`
	}
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			handleError(c, errors.NewAppError(http.StatusBadRequest, "Invalid request body", err))
			return
		}
	}
	sess, err := s.discovery.CreateSession(req.Filters, req.Mode)
	if err != nil {
		handleError(c, err)
		return
	}
	if req.Query != "" {
		if sess, err = s.discovery.SetQuery(sess.ID, req.Query); err != nil {
			handleError(c, err)
			return
		}
	}
	c.JSON(http.StatusCreated, sess)
}

func (s *Server) handleGetSession(c *gin.Context) {
	sess, err := s.discovery.Session(c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (s *Server) handleDeleteSession(c *gin.Context) {
	s.discovery.DeleteSession(c.Param("id"))
	c.Status(http.StatusNoContent)
}

// handleToggle flips one filter. Unknown ids answer 200 with changed=false
// and a suggestion when one is close.
func (s *Server) handleToggle(c *gin.Context) {
	var req struct {
		Filter string `json:"filter"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, errors.NewAppError(http.StatusBadRequest, "Invalid request body", err))
		return
	}
	res, err := s.discovery.ToggleFilter(c.Param("id"), req.Filter)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) handleSetQuery(c *gin.Context) {
	var req struct {
		Query string `json:"query"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, errors.NewAppError(http.StatusBadRequest, "Invalid request body", err))
		return
	}
	sess, err := s.discovery.SetQuery(c.Param("id"), req.Query)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (s *Server) handleSetMode(c *gin.Context) {
	var req struct {
		Mode string `json:"mode"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, errors.NewAppError(http.StatusBadRequest, "Invalid request body", err))
		return
	}
	sess, err := s.discovery.SetMode(c.Param("id"), req.Mode)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (s *Server) handleResetSession(c *gin.Context) {
	sess, err := s.discovery.ResetSession(c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (s *Server) handleSessionCafes(c *gin.Context) {
	res, err := s.discovery.SessionResults(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// handleSessionRemote searches Places for the session. A request that a
// newer one overtook answers 409.
func (s *Server) handleSessionRemote(c *gin.Context) {
	res, err := s.discovery.SearchRemote(c.Request.Context(), c.Param("id"), c.Query("q"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// handlePlacesSearch is a stateless Places search: ?q=&near=lat,lng.
func (s *Server) handlePlacesSearch(c *gin.Context) {
	q := c.Query("q")
	if strings.TrimSpace(q) == "" {
		handleError(c, errors.NewAppError(http.StatusBadRequest, "Missing query", errors.ErrInvalidInput))
		return
	}
	var near *places.LatLng
	if raw := c.Query("near"); raw != "" {
		loc, err := places.ParseLatLng(raw)
		if err != nil {
			handleError(c, err)
			return
		}
		near = &loc
	}
	cafes, err := s.discovery.SearchPlaces(c.Request.Context(), q, near)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cafes": cafes, "total": len(cafes)})
}

// handlePlacesNearby lists Places cafes around ?near=lat,lng (default: the
// configured origin) within ?radius= meters, optionally matching ?keyword=.
func (s *Server) handlePlacesNearby(c *gin.Context) {
	var near *places.LatLng
	if raw := c.Query("near"); raw != "" {
		loc, err := places.ParseLatLng(raw)
		if err != nil {
			handleError(c, err)
			return
		}
		near = &loc
	}
	radius := 0
	if raw := c.Query("radius"); raw != "" {
		r, err := strconv.Atoi(raw)
		if err != nil || r <= 0 {
			handleError(c, errors.NewAppError(http.StatusBadRequest, "Invalid radius", errors.ErrInvalidInput))
			return
		}
		radius = r
	}
	cafes, err := s.discovery.NearbyPlaces(c.Request.Context(), near, radius, c.Query("keyword"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cafes": cafes, "total": len(cafes)})
}

func (s *Server) handlePlace(c *gin.Context) {
	detail, err := s.discovery.Cafe(c.Request.Context(), "place:"+c.Param("placeId"), "")
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail.Cafe)
}
