package server

import (
	"github.com/daniyal2335/eprojectfitness/internal/models"
	"github.com/daniyal2335/eprojectfitness/internal/service"

	"github.com/gofiber/fiber/v2"
)

type createForumPostRequest struct {
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
}

type replyRequest struct {
	Content string `json:"content"`
}

// forumPostPage is a listing page plus the caller's id for client-side ownership checks.
type forumPostPage struct {
	*models.PostPage
	CurrentUserID uint `json:"currentUserId"`
}

type forumPostResponse struct {
	*models.ForumPost
	CurrentUserID uint `json:"currentUserId"`
}

// ListForumPosts handles GET /api/forum
func (s *Server) ListForumPosts(c *fiber.Ctx) error {
	userID := currentUserID(c)

	page, err := s.forumService.ListPosts(c.UserContext(), service.ListPostsInput{
		Category: models.ForumCategory(c.Query("category")),
		Tags:     splitList(c.Query("tags")),
		Page:     c.QueryInt("page", 1),
		PageSize: c.QueryInt("limit", service.DefaultPageSize),
		Sort:     c.Query("sort"),
		ViewerID: userID,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(forumPostPage{PostPage: page, CurrentUserID: userID})
}

// GetForumPost handles GET /api/forum/:id. Every read counts as a view.
func (s *Server) GetForumPost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	userID := currentUserID(c)

	post, err := s.forumService.GetPost(c.UserContext(), postID, userID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(forumPostResponse{ForumPost: post, CurrentUserID: userID})
}

// CreateForumPost handles POST /api/forum
func (s *Server) CreateForumPost(c *fiber.Ctx) error {
	var req createForumPostRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	post, err := s.forumService.CreatePost(c.UserContext(), service.CreatePostInput{
		AuthorID: currentUserID(c),
		Title:    req.Title,
		Content:  req.Content,
		Category: models.ForumCategory(req.Category),
		Tags:     req.Tags,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Post created",
		"post":    post,
	})
}

// ReplyToPost handles POST /api/forum/:id/reply
func (s *Server) ReplyToPost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req replyRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	reply, err := s.forumService.AddReply(c.UserContext(), postID, currentUserID(c), req.Content)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(reply)
}

// TogglePostLike handles POST /api/forum/:id/like
func (s *Server) TogglePostLike(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	res, err := s.forumService.ToggleLike(c.UserContext(), postID, currentUserID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{
		"isLiked":    res.Active,
		"likesCount": res.Count,
	})
}

// TogglePostFollow handles POST /api/forum/:id/follow/toggle
func (s *Server) TogglePostFollow(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	res, err := s.forumService.ToggleFollow(c.UserContext(), postID, currentUserID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return followResponse(c, res)
}

// FollowPost handles POST /api/forum/:id/follow
func (s *Server) FollowPost(c *fiber.Ctx) error {
	return s.setFollow(c, true)
}

// UnfollowPost handles DELETE /api/forum/:id/follow
func (s *Server) UnfollowPost(c *fiber.Ctx) error {
	return s.setFollow(c, false)
}

func (s *Server) setFollow(c *fiber.Ctx, follow bool) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	res, err := s.forumService.SetFollow(c.UserContext(), postID, currentUserID(c), follow)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return followResponse(c, res)
}

func followResponse(c *fiber.Ctx, res models.ToggleResult) error {
	return c.JSON(fiber.Map{
		"isFollowed":     res.Active,
		"followersCount": res.Count,
	})
}

// GetPostFollowers handles GET /api/forum/:id/followers. The body is a bare array.
func (s *Server) GetPostFollowers(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	followers, err := s.forumService.ListFollowers(c.UserContext(), postID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(followers)
}
