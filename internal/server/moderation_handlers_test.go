package server

import (
	"net/http"
	"testing"

	"commune/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportFlow(t *testing.T) {
	s, app, db := newTestServer(t)
	author, _ := createTestUser(t, s, db, "Author", "author@example.com")
	_, reporterToken := createTestUser(t, s, db, "Reporter", "reporter@example.com")
	admin, adminToken := createTestUser(t, s, db, "Admin", "admin@example.com")
	require.NoError(t, db.Model(admin).Update("is_admin", true).Error)

	post := &models.Post{Title: "spam", UserID: author.ID, Status: models.PostStatusActive, MediaType: models.MediaTypeNone}
	require.NoError(t, db.Create(post).Error)

	// Submit a report
	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/reports", reporterToken, map[string]interface{}{
		"target_type": "post",
		"target_id":   post.ID,
		"reason":      "spam content",
	}), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var report models.Report
	decodeBody(t, resp, &report)
	assert.Equal(t, "Reporter", report.ReportedByName)

	// Duplicate report by the same reporter is rejected
	resp, err = app.Test(jsonRequest(t, http.MethodPost, "/api/reports", reporterToken, map[string]interface{}{
		"target_type": "post",
		"target_id":   post.ID,
		"reason":      "still spam",
	}), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Listing reports requires admin
	resp, err = app.Test(jsonRequest(t, http.MethodGet, "/api/reports", reporterToken, nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, err = app.Test(jsonRequest(t, http.MethodGet, "/api/reports?resolved=false", adminToken, nil), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var reports []models.Report
	decodeBody(t, resp, &reports)
	require.Len(t, reports, 1)

	// Resolving with delete_content removes the post and the report with it
	resp, err = app.Test(jsonRequest(t, http.MethodPost, "/api/reports/"+pathID(report.ID)+"/resolve", adminToken, map[string]interface{}{
		"action": "delete_content",
	}), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var resolved models.Report
	decodeBody(t, resp, &resolved)
	assert.True(t, resolved.Resolved)

	var postCount, reportCount int64
	require.NoError(t, db.Model(&models.Post{}).Where("id = ?", post.ID).Count(&postCount).Error)
	require.NoError(t, db.Model(&models.Report{}).Where("id = ?", report.ID).Count(&reportCount).Error)
	assert.Zero(t, postCount)
	assert.Zero(t, reportCount)

	// The removed report cannot be resolved again
	resp, err = app.Test(jsonRequest(t, http.MethodPost, "/api/reports/"+pathID(report.ID)+"/resolve", adminToken, map[string]interface{}{
		"action": "dismiss",
	}), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestResolveTwiceRejected(t *testing.T) {
	s, app, db := newTestServer(t)
	author, _ := createTestUser(t, s, db, "Author", "author@example.com")
	_, reporterToken := createTestUser(t, s, db, "Reporter", "reporter@example.com")
	admin, adminToken := createTestUser(t, s, db, "Admin", "admin@example.com")
	require.NoError(t, db.Model(admin).Update("is_admin", true).Error)

	post := &models.Post{Title: "disputed", UserID: author.ID, Status: models.PostStatusActive, MediaType: models.MediaTypeNone}
	require.NoError(t, db.Create(post).Error)

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/reports", reporterToken, map[string]interface{}{
		"target_type": "post",
		"target_id":   post.ID,
		"reason":      "borderline",
	}), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var report models.Report
	decodeBody(t, resp, &report)

	resp, err = app.Test(jsonRequest(t, http.MethodPost, "/api/reports/"+pathID(report.ID)+"/resolve", adminToken, map[string]interface{}{
		"action": "dismiss",
	}), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(jsonRequest(t, http.MethodPost, "/api/reports/"+pathID(report.ID)+"/resolve", adminToken, map[string]interface{}{
		"action": "dismiss",
	}), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestReportValidation(t *testing.T) {
	s, app, db := newTestServer(t)
	_, token := createTestUser(t, s, db, "Reporter", "reporter@example.com")

	t.Run("unknown target kind", func(t *testing.T) {
		resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/reports", token, map[string]interface{}{
			"target_type": "profile",
			"target_id":   1,
			"reason":      "bad",
		}), -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("missing target", func(t *testing.T) {
		resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/reports", token, map[string]interface{}{
			"target_type": "post",
			"target_id":   9999,
			"reason":      "bad",
		}), -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("empty reason", func(t *testing.T) {
		resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/reports", token, map[string]interface{}{
			"target_type": "post",
			"target_id":   1,
			"reason":      "  ",
		}), -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}
