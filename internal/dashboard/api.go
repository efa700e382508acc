package dashboard

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/YuminosukeSato/crimescope/internal/dataset"
	"github.com/YuminosukeSato/crimescope/internal/prediction"
	"github.com/YuminosukeSato/crimescope/pkg/errors"
)

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	var vErr *errors.ValidationError
	var dimErr *errors.DimensionError
	switch {
	case errors.Is(err, errors.ErrModelNotFound):
		return http.StatusNotFound
	case errors.Is(err, errors.ErrEmptyData):
		return http.StatusUnprocessableEntity
	case errors.As(err, &vErr), errors.As(err, &dimErr):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleAPISummary(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"summary":     s.summary,
		"target_mean": s.targetMean,
		"states":      s.frame.UniqueStrings(dataset.ColUF),
	})
}

func (s *Server) handleAPIResults(c *gin.Context) {
	if s.bundle == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": ModelMissingMessage})
		return
	}
	b := s.bundle
	c.JSON(http.StatusOK, gin.H{
		"id":          b.ID,
		"model_name":  b.ModelName,
		"metrics":     b.Metrics,
		"all_results": b.AllResults,
		"features":    b.Features,
		"target":      b.Target,
		"trained_at":  b.TrainedAt,
	})
}

type predictRequest struct {
	prediction.Input
	// Sensitivity optionally names a variable to sweep.
	Sensitivity string `json:"sensitivity"`
}

func (s *Server) handleAPIPredict(c *gin.Context) {
	if s.bundle == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": ModelMissingMessage})
		return
	}
	req := predictRequest{Input: prediction.DefaultInput()}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := prediction.Predict(s.bundle, s.bundle.Features, req.Input, s.targetMean)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	out := gin.H{"prediction": res}
	if req.Sensitivity != "" {
		curve, err := prediction.Sensitivity(s.bundle, s.bundle.Features, req.Input, req.Sensitivity)
		if err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}
		out["sensitivity"] = curve
	}
	c.JSON(http.StatusOK, out)
}
