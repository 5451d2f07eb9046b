package controllers

import (
	"net/http"

	"stratusdrive/models"
	"stratusdrive/services"
	"stratusdrive/utils"

	"github.com/gin-gonic/gin"
)

type ShareController struct {
	authService    *services.AuthService
	shareService   *services.ShareService
	fsoService     *services.FsoService
	archiveService *services.ArchiveService
}

func NewShareController(authService *services.AuthService, shareService *services.ShareService, fsoService *services.FsoService, archiveService *services.ArchiveService) *ShareController {
	return &ShareController{
		authService:    authService,
		shareService:   shareService,
		fsoService:     fsoService,
		archiveService: archiveService,
	}
}

type CreateShareRequest struct {
	IDs string `json:"ids" binding:"required"`
}

// Create snapshots the selected nodes under a fresh public key.
func (sc *ShareController) Create(c *gin.Context) {
	caller, _, ok := resolveCaller(c, sc.authService)
	if !ok {
		return
	}
	var req CreateShareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err.Error())
		return
	}
	ids, err := parseIDList(req.IDs)
	if err != nil || len(ids) == 0 {
		utils.BadRequestResponse(c, "Invalid id list")
		return
	}

	fsos, err := sc.fsoService.GetFsoList(c.Request.Context(), ids)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	key, err := sc.shareService.CreateShare(c.Request.Context(), fsos, caller)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, "Share created", gin.H{"key": key})
}

// Mine lists the caller's shares with resolved content.
func (sc *ShareController) Mine(c *gin.Context) {
	caller, _, ok := resolveCaller(c, sc.authService)
	if !ok {
		return
	}

	shares, err := sc.shareService.SharesByUser(c.Request.Context(), caller.UserID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, "Shares retrieved", shares)
}

// Get lists a share's surviving content for anonymous viewers.
func (sc *ShareController) Get(c *gin.Context) {
	share, ok := sc.shareByKey(c)
	if !ok {
		return
	}

	content, err := sc.shareService.ContentDTO(c.Request.Context(), share)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	dto := models.NewShareDTO(share)
	dto.Content = content
	utils.SuccessResponse(c, "Share retrieved", dto)
}

// Info summarizes a share without listing its content.
func (sc *ShareController) Info(c *gin.Context) {
	share, ok := sc.shareByKey(c)
	if !ok {
		return
	}

	info, err := sc.shareService.Info(c.Request.Context(), share)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, "Share info retrieved", info)
}

// Folder lists a folder inside a share. Authorization is reachability from
// the share's node set, not drive ownership.
func (sc *ShareController) Folder(c *gin.Context) {
	share, ok := sc.shareByKey(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	fso, err := sc.fsoService.GetFso(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	shared, err := sc.shareService.IsShared(c.Request.Context(), share, fso)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if !shared {
		utils.ForbiddenResponse(c, "Access denied")
		return
	}
	children, err := sc.fsoService.Content(c.Request.Context(), fso)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	dto := models.NewFsoDTO(fso)
	dto.Content = models.NewFsoDTOList(children)
	utils.SuccessResponse(c, "Folder retrieved", dto)
}

// Download streams share content anonymously. With an ids query the caller
// picks nodes inside the share; without it the whole snapshot is streamed.
func (sc *ShareController) Download(c *gin.Context) {
	share, ok := sc.shareByKey(c)
	if !ok {
		return
	}

	var fsos []models.FSO
	var err error
	if csv := c.Query("ids"); csv != "" {
		ids, parseErr := parseIDList(csv)
		if parseErr != nil || len(ids) == 0 {
			utils.BadRequestResponse(c, "Invalid id list")
			return
		}
		fsos, err = sc.fsoService.GetFsoList(c.Request.Context(), ids)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		for i := range fsos {
			shared, err := sc.shareService.IsShared(c.Request.Context(), share, &fsos[i])
			if err != nil {
				respondServiceError(c, err)
				return
			}
			if !shared {
				utils.ForbiddenResponse(c, "Access denied")
				return
			}
		}
	} else {
		fsos, err = sc.shareService.Content(c.Request.Context(), share)
		if err != nil {
			respondServiceError(c, err)
			return
		}
	}
	if len(fsos) == 0 {
		utils.BadRequestResponse(c, "Share has no remaining content")
		return
	}

	streamSelection(c, sc.fsoService, sc.archiveService, fsos)
}

// Delete removes the caller's share. The shared nodes are untouched.
func (sc *ShareController) Delete(c *gin.Context) {
	caller, _, ok := resolveCaller(c, sc.authService)
	if !ok {
		return
	}
	share, ok := sc.shareByKey(c)
	if !ok {
		return
	}

	if err := sc.shareService.Delete(c.Request.Context(), share, caller); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, "Share deleted", nil)
}

func (sc *ShareController) shareByKey(c *gin.Context) (*models.Share, bool) {
	key := c.Param("key")
	if key == "" {
		utils.BadRequestResponse(c, "Missing share key")
		return nil, false
	}
	share, err := sc.shareService.GetByPublicID(c.Request.Context(), key)
	if err != nil {
		respondServiceError(c, err)
		return nil, false
	}
	return share, true
}
