package handlers

import (
	"errors"
	"io/fs"
	"net/http"

	"github.com/gin-gonic/gin"

	"arima-backtest/internal/api/models"
	"arima-backtest/internal/data"
)

// DatasetHandler serves the stored-dataset listing
type DatasetHandler struct {
	dataDir string
}

// NewDatasetHandler creates a new dataset handler
func NewDatasetHandler(dataDir string) *DatasetHandler {
	if dataDir == "" {
		dataDir = data.DefaultDataDir()
	}
	return &DatasetHandler{dataDir: dataDir}
}

// ListDatasets handles GET /api/v1/datasets
func (h *DatasetHandler) ListDatasets(c *gin.Context) {
	files, err := data.ListDatasets(h.dataDir)
	if err != nil {
		// A missing data directory means no datasets, not a failure.
		if errors.Is(err, fs.ErrNotExist) {
			c.JSON(http.StatusOK, models.DatasetsResponse{Datasets: []models.DatasetInfo{}})
			return
		}
		respondError(c, http.StatusInternalServerError, "DATASET_LIST_ERROR", err.Error())
		return
	}

	datasets := make([]models.DatasetInfo, len(files))
	for i, f := range files {
		datasets[i] = models.DatasetInfo{
			Name:   f.Name,
			Symbol: f.Symbol,
			Bars:   f.Bars,
			First:  f.First,
			Last:   f.Last,
		}
	}
	c.JSON(http.StatusOK, models.DatasetsResponse{Datasets: datasets})
}
