package controllers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"pulse/config"
	"pulse/feed"
	"pulse/models"
	"pulse/store"
	"pulse/utils"
)

const (
	cacheFeedPrefix       = "cache:feed:"
	cachePostDetailPrefix = "cache:post:detail:"
)

// PostController manages posts, likes, comments and the feed.
type PostController struct {
	stores    *store.Stores
	assembler *feed.Assembler
}

// NewPostController creates a PostController.
func NewPostController(stores *store.Stores, assembler *feed.Assembler) *PostController {
	return &PostController{stores: stores, assembler: assembler}
}

// Feed returns every post enriched for the authenticated viewer,
// newest first. Responses are cached per viewer because the payload
// carries the viewer's like state.
func (p *PostController) Feed(ctx *gin.Context) {
	viewerID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	cacheKey := fmt.Sprintf("%sviewer=%d", cacheFeedPrefix, viewerID)
	if b, ok := utils.CacheGetBytes(cacheKey); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	items, err := p.assembler.Build(ctx.Request.Context(), viewerID)
	if err != nil {
		utils.Errorf("feed build for viewer %d: %v", viewerID, err)
		utils.Error(ctx, http.StatusInternalServerError, 50020, "failed to build feed")
		return
	}

	payload := gin.H{"items": items}
	utils.CacheSetJSON(cacheKey, utils.JSONResponse{Code: 0, Message: "success", Data: payload}, time.Hour)
	utils.Success(ctx, payload)
}

// CreatePost accepts a multipart form with an optional media upload.
func (p *PostController) CreatePost(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	content := utils.Sanitize(strings.TrimSpace(ctx.PostForm("content")))

	var upload *store.MediaUpload
	file, header, err := ctx.Request.FormFile("media")
	if err == nil {
		defer file.Close()

		maxSize := int64(config.Get().MaxUploadMB) << 20
		if header.Size > maxSize {
			utils.Error(ctx, http.StatusBadRequest, 40032, fmt.Sprintf("file size exceeds %dMB", config.Get().MaxUploadMB))
			return
		}
		data, err := io.ReadAll(io.LimitReader(file, maxSize+1))
		if err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50030, "failed to read upload")
			return
		}
		if int64(len(data)) > maxSize {
			utils.Error(ctx, http.StatusBadRequest, 40032, fmt.Sprintf("file size exceeds %dMB", config.Get().MaxUploadMB))
			return
		}
		if len(data) > 0 {
			upload = &store.MediaUpload{Filename: header.Filename, Data: data}
		}
	}

	post, err := p.stores.Content.CreatePost(ctx.Request.Context(), userID, content, upload)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrEmptyPost):
			utils.Error(ctx, http.StatusBadRequest, 40021, "post must have content or media")
		case errors.Is(err, models.ErrUnsupportedMediaType):
			utils.Error(ctx, http.StatusBadRequest, 40033, "unsupported media type")
		default:
			utils.Errorf("create post by user %d: %v", userID, err)
			utils.Error(ctx, http.StatusInternalServerError, 50021, "failed to create post")
		}
		return
	}

	utils.InvalidateByPrefix(cacheFeedPrefix)

	utils.Success(ctx, gin.H{"post": post})
}

// GetPost returns a single post with its comments, enriched for the
// viewer like a feed item.
func (p *PostController) GetPost(ctx *gin.Context) {
	viewerID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	postID, ok := parseID(ctx.Param("id"))
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40040, "invalid post id")
		return
	}

	cacheKey := fmt.Sprintf("%s%d:viewer=%d", cachePostDetailPrefix, postID, viewerID)
	if b, ok := utils.CacheGetBytes(cacheKey); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	item, err := p.assembler.BuildOne(ctx.Request.Context(), postID, viewerID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40401, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to load post")
		return
	}

	payload := gin.H{"post": item}
	utils.CacheSetJSON(cacheKey, utils.JSONResponse{Code: 0, Message: "success", Data: payload}, time.Hour)
	utils.Success(ctx, payload)
}

// ToggleLike flips the viewer's like on a post and returns the state
// the flat-file app's JSON endpoint exposed: status, action, count and
// the resulting like flag.
func (p *PostController) ToggleLike(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	postID, ok := parseID(ctx.Param("id"))
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40040, "invalid post id")
		return
	}

	liked, likeCount, err := p.stores.Interactions.ToggleLike(ctx.Request.Context(), userID, postID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40401, "post not found")
			return
		}
		utils.Errorf("toggle like user=%d post=%d: %v", userID, postID, err)
		utils.Error(ctx, http.StatusInternalServerError, 50023, "failed to toggle like")
		return
	}

	utils.InvalidateByPrefix(cacheFeedPrefix)
	utils.InvalidateByPrefix(cachePostDetailPrefix + strconv.FormatUint(uint64(postID), 10) + ":")

	action := "unliked"
	if liked {
		action = "liked"
	}
	utils.Success(ctx, gin.H{
		"status":     "success",
		"action":     action,
		"like_count": likeCount,
		"liked":      liked,
	})
}

// CreateComment appends a comment to a post.
func (p *PostController) CreateComment(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	postID, ok := parseID(ctx.Param("id"))
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40040, "invalid post id")
		return
	}

	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40022, "invalid request payload")
		return
	}

	content := utils.Sanitize(strings.TrimSpace(req.Content))
	comment, err := p.stores.Interactions.AddComment(ctx.Request.Context(), userID, postID, content)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrEmptyComment):
			utils.Error(ctx, http.StatusBadRequest, 40023, "content cannot be empty")
		case errors.Is(err, models.ErrNotFound):
			utils.Error(ctx, http.StatusNotFound, 40402, "post not found")
		default:
			utils.Errorf("comment user=%d post=%d: %v", userID, postID, err)
			utils.Error(ctx, http.StatusInternalServerError, 50024, "failed to create comment")
		}
		return
	}

	utils.InvalidateByPrefix(cacheFeedPrefix)
	utils.InvalidateByPrefix(cachePostDetailPrefix + strconv.FormatUint(uint64(postID), 10) + ":")

	utils.Success(ctx, gin.H{"comment": comment})
}

func parseID(raw string) (uint, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
