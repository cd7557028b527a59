package services

import (
	"fmt"
	"io"

	"video-research-backend/models"

	"github.com/xuri/excelize/v2"
)

// WriteLibraryReport writes the whole video library as an xlsx workbook,
// one row per video with its pipeline status and scores.
func WriteLibraryReport(videos []*models.Video, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Videos"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"ID", "Title", "Source", "Status", "Overall", "Quality", "Relevance", "Factual", "Tags", "Created"}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}

	for row, video := range videos {
		values := []interface{}{
			video.ID,
			video.Title,
			string(video.SourceType),
			string(video.Status),
			scoreCell(video.AIRatingScore),
			scoreCell(video.ContentQualityScore),
			scoreCell(video.ResearchRelevanceScore),
			scoreCell(video.FactualAccuracyScore),
			video.Tags,
			video.CreatedAt.Format("2006-01-02 15:04"),
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write report: %v", err)
	}
	return nil
}

func scoreCell(v *float64) interface{} {
	if v == nil {
		return ""
	}
	return *v
}
