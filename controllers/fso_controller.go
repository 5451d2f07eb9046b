package controllers

import (
	"fmt"
	"net/http"
	"strconv"

	"stratusdrive/config"
	"stratusdrive/models"
	"stratusdrive/services"
	"stratusdrive/utils"

	"github.com/gin-gonic/gin"
)

type FsoController struct {
	authService    *services.AuthService
	fsoService     *services.FsoService
	archiveService *services.ArchiveService
	blobStore      services.BlobStore
}

func NewFsoController(authService *services.AuthService, fsoService *services.FsoService, archiveService *services.ArchiveService, blobStore services.BlobStore) *FsoController {
	return &FsoController{
		authService:    authService,
		fsoService:     fsoService,
		archiveService: archiveService,
		blobStore:      blobStore,
	}
}

type CreateFolderRequest struct {
	Name     string `json:"name" binding:"required,max=255"`
	ParentID int64  `json:"parent_id" binding:"required"`
}

type RenameRequest struct {
	ID   int64  `json:"id" binding:"required"`
	Name string `json:"name" binding:"required,max=255"`
}

type MoveRequest struct {
	IDs         string `json:"ids" binding:"required"`
	Destination int64  `json:"destination" binding:"required"`
}

type DownloadRequest struct {
	IDs string `json:"ids" binding:"required"`
}

// Drive returns the caller's root folder with its direct children.
func (fc *FsoController) Drive(c *gin.Context) {
	caller, _, ok := resolveCaller(c, fc.authService)
	if !ok {
		return
	}

	root, err := fc.fsoService.GetFso(c.Request.Context(), caller.DriveID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	children, err := fc.fsoService.Content(c.Request.Context(), root)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	dto := models.NewFsoDTO(root)
	dto.Content = models.NewFsoDTOList(children)
	utils.SuccessResponse(c, "Drive retrieved", dto)
}

// DiskInfo reports used bytes against the configured quota.
func (fc *FsoController) DiskInfo(c *gin.Context) {
	caller, _, ok := resolveCaller(c, fc.authService)
	if !ok {
		return
	}

	root, err := fc.fsoService.GetFso(c.Request.Context(), caller.DriveID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	used, err := fc.fsoService.Size(c.Request.Context(), root)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	total := config.AppConfig.StorageSize
	var percent float64
	if total > 0 {
		percent = float64(used) / float64(total) * 100
	}
	utils.SuccessResponse(c, "Disk info retrieved", gin.H{
		"used":    used,
		"total":   total,
		"percent": percent,
	})
}

func (fc *FsoController) Get(c *gin.Context) {
	caller, _, ok := resolveCaller(c, fc.authService)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	fso, err := fc.ownedFso(c, id, caller)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, "Object retrieved", models.NewFsoDTO(fso))
}

// FullPath returns the breadcrumb chain from the drive root down to the node.
func (fc *FsoController) FullPath(c *gin.Context) {
	caller, _, ok := resolveCaller(c, fc.authService)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	fso, err := fc.ownedFso(c, id, caller)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	path, err := fc.fsoService.FullPath(c.Request.Context(), fso)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, "Path retrieved", models.NewFsoDTOList(path))
}

// Folder lists a folder's direct children.
func (fc *FsoController) Folder(c *gin.Context) {
	caller, _, ok := resolveCaller(c, fc.authService)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	fso, err := fc.ownedFso(c, id, caller)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	children, err := fc.fsoService.Content(c.Request.Context(), fso)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	dto := models.NewFsoDTO(fso)
	dto.Content = models.NewFsoDTOList(children)
	utils.SuccessResponse(c, "Folder retrieved", dto)
}

func (fc *FsoController) CreateFolder(c *gin.Context) {
	caller, _, ok := resolveCaller(c, fc.authService)
	if !ok {
		return
	}
	var req CreateFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err.Error())
		return
	}

	fso, err := fc.fsoService.CreateFolder(c.Request.Context(), req.Name, req.ParentID, caller)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.CreatedResponse(c, "Folder created", models.NewFsoDTO(fso))
}

func (fc *FsoController) Rename(c *gin.Context) {
	caller, _, ok := resolveCaller(c, fc.authService)
	if !ok {
		return
	}
	var req RenameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err.Error())
		return
	}

	fso, err := fc.fsoService.Rename(c.Request.Context(), req.ID, req.Name, caller)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, "Object renamed", models.NewFsoDTO(fso))
}

// Delete removes the selected nodes recursively, best effort. Ids the caller
// does not own are skipped without error.
func (fc *FsoController) Delete(c *gin.Context) {
	caller, _, ok := resolveCaller(c, fc.authService)
	if !ok {
		return
	}
	ids, err := parseIDList(c.Query("ids"))
	if err != nil || len(ids) == 0 {
		utils.BadRequestResponse(c, "Invalid id list")
		return
	}

	fc.fsoService.DeleteMany(c.Request.Context(), ids, caller)
	utils.SuccessResponse(c, "Objects deleted", nil)
}

// Move reparents the selected nodes under the destination folder and reports
// which moves succeeded and which failed.
func (fc *FsoController) Move(c *gin.Context) {
	caller, _, ok := resolveCaller(c, fc.authService)
	if !ok {
		return
	}
	var req MoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err.Error())
		return
	}
	ids, err := parseIDList(req.IDs)
	if err != nil || len(ids) == 0 {
		utils.BadRequestResponse(c, "Invalid id list")
		return
	}

	succeeded, failed, err := fc.fsoService.MoveMany(c.Request.Context(), ids, req.Destination, caller)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, "Move completed", gin.H{
		"succeeded": models.NewFsoDTOList(succeeded),
		"failed":    models.NewFsoDTOList(failed),
	})
}

// Upload stores each uploaded file as a blob and records a file node under
// the target folder.
func (fc *FsoController) Upload(c *gin.Context) {
	caller, _, ok := resolveCaller(c, fc.authService)
	if !ok {
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		utils.BadRequestResponse(c, "Invalid multipart form")
		return
	}
	parentID, parseErr := strconv.ParseInt(c.PostForm("parent_id"), 10, 64)
	if parseErr != nil {
		utils.BadRequestResponse(c, "Missing or invalid parent_id")
		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		utils.BadRequestResponse(c, "No files provided")
		return
	}

	created := make([]models.FsoDTO, 0, len(files))
	for _, fileHeader := range files {
		if fileHeader.Size > config.AppConfig.MaxFileSize {
			utils.BadRequestResponse(c, fmt.Sprintf("File %s exceeds the maximum size", fileHeader.Filename))
			return
		}
		src, err := fileHeader.Open()
		if err != nil {
			utils.BadRequestResponse(c, fmt.Sprintf("Cannot read file %s", fileHeader.Filename))
			return
		}
		handle, size, err := fc.blobStore.Create(c.Request.Context(), caller.UserID, src)
		src.Close()
		if err != nil {
			respondServiceError(c, err)
			return
		}
		fso, err := fc.fsoService.CreateFile(c.Request.Context(), fileHeader.Filename, handle, size, parentID, caller)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		created = append(created, models.NewFsoDTO(fso))
	}

	utils.CreatedResponse(c, "Files uploaded", created)
}

// Download streams the selection: the raw blob when it is a single file,
// otherwise a zip built on the fly.
func (fc *FsoController) Download(c *gin.Context) {
	caller, _, ok := resolveCaller(c, fc.authService)
	if !ok {
		return
	}
	var req DownloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err.Error())
		return
	}
	ids, err := parseIDList(req.IDs)
	if err != nil || len(ids) == 0 {
		utils.BadRequestResponse(c, "Invalid id list")
		return
	}

	fsos, err := fc.fsoService.GetFsoList(c.Request.Context(), ids)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	for i := range fsos {
		owned, err := fc.fsoService.IsOwner(c.Request.Context(), &fsos[i], caller)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		if !owned {
			utils.ForbiddenResponse(c, "Access denied")
			return
		}
	}

	streamSelection(c, fc.fsoService, fc.archiveService, fsos)
}

// streamSelection is the shared tail of the owned and shared download paths.
func streamSelection(c *gin.Context, fsoService *services.FsoService, archiveService *services.ArchiveService, fsos []models.FSO) {
	root, err := fsoService.CheckCommonRoot(c.Request.Context(), fsos)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if root == nil {
		utils.BadRequestResponse(c, "Invalid selection")
		return
	}

	if len(fsos) == 1 && !fsos[0].IsFolder {
		download, err := archiveService.OpenFile(c.Request.Context(), &fsos[0])
		if err != nil {
			respondServiceError(c, err)
			return
		}
		defer download.Body.Close()
		c.DataFromReader(http.StatusOK, fsos[0].FileSize, download.ContentType, download.Body, map[string]string{
			"Content-Disposition": fmt.Sprintf("attachment; filename=%q", fsos[0].Name),
		})
		return
	}

	c.Header("Content-Type", "application/zip")
	c.Header("Content-Disposition", `attachment; filename="archive.zip"`)
	c.Status(http.StatusOK)
	if err := archiveService.WriteArchive(c.Request.Context(), c.Writer, root, fsos); err != nil {
		// headers are gone, all we can do is log and cut the stream
		respondArchiveFailure(c, err)
	}
}

func (fc *FsoController) ownedFso(c *gin.Context, id int64, caller models.Caller) (*models.FSO, error) {
	fso, err := fc.fsoService.GetFso(c.Request.Context(), id)
	if err != nil {
		return nil, err
	}
	owned, err := fc.fsoService.IsOwner(c.Request.Context(), fso, caller)
	if err != nil {
		return nil, err
	}
	if !owned {
		return nil, fmt.Errorf("fso %d: %w", id, services.ErrForbidden)
	}
	return fso, nil
}
