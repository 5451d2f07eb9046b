package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"stratusdrive/models"
	"stratusdrive/services"
	"stratusdrive/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondServiceError maps service sentinel errors onto HTTP statuses.
// Anything unrecognized is a storage-side failure and gets logged.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		utils.NotFoundResponse(c, "Resource not found")
	case errors.Is(err, services.ErrForbidden):
		utils.ForbiddenResponse(c, "Access denied")
	case errors.Is(err, services.ErrNotAFolder):
		utils.BadRequestResponse(c, "Target is not a folder")
	case errors.Is(err, services.ErrCycle):
		utils.BadRequestResponse(c, "Cannot move a folder into itself or its descendants")
	case errors.Is(err, services.ErrBadSelection):
		utils.BadRequestResponse(c, "Invalid selection")
	default:
		zap.L().Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		utils.ErrorResponse(c, http.StatusInternalServerError, "Internal server error", nil)
	}
}

// respondArchiveFailure handles errors raised after the zip stream has
// started. The status line is already on the wire, so the best we can do is
// log and cut the connection short.
func respondArchiveFailure(c *gin.Context, err error) {
	zap.L().Error("archive stream failed", zap.String("path", c.FullPath()), zap.Error(err))
	c.Abort()
}

// resolveCaller turns the authenticated user id set by the auth middleware
// into the full user record and its caller identity.
func resolveCaller(c *gin.Context, auth *services.AuthService) (models.Caller, *models.User, bool) {
	userID := c.GetString("userId")
	if userID == "" {
		utils.UnauthorizedResponse(c, "User not authenticated")
		return models.Caller{}, nil, false
	}
	user, err := auth.CurrentUser(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err)
		return models.Caller{}, nil, false
	}
	return user.Caller(), user, true
}

// parseIDList parses a comma separated id list like "3,17,42".
func parseIDList(csv string) ([]int64, error) {
	parts := strings.Split(csv, ",")
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func parseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid id")
		return 0, false
	}
	return id, true
}
