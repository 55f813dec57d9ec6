// Package feed joins posts with author identity and interaction
// aggregates into the view the HTTP layer renders. The join is
// O(posts × comments) per call and recomputed on every request, which
// is deliberate: the system targets small datasets and derives all
// counts instead of storing them.
package feed

import (
	"context"
	"errors"

	"pulse/models"
	"pulse/store"
	"pulse/utils"
)

// UnknownAuthor replaces the username of a missing author.
const UnknownAuthor = "Unknown"

// Assembler builds enriched feed items from the backend stores.
type Assembler struct {
	identity     store.IdentityStore
	content      store.ContentStore
	interactions store.InteractionStore
}

// New creates an Assembler over one backend's stores.
func New(s *store.Stores) *Assembler {
	return &Assembler{
		identity:     s.Identity,
		content:      s.Content,
		interactions: s.Interactions,
	}
}

// Build returns every post newest first, each enriched with the author
// username, like and comment counts, the viewer's like state and the
// post's comments in creation order.
func (a *Assembler) Build(ctx context.Context, viewerID uint) ([]models.FeedItem, error) {
	posts, err := a.content.ListPosts(ctx)
	if err != nil {
		return nil, err
	}

	likedIDs, err := a.interactions.LikedPostIDs(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	liked := make(map[uint]bool, len(likedIDs))
	for _, id := range likedIDs {
		liked[id] = true
	}

	names := newNameResolver(a.identity)
	authorIDs := make([]uint, 0, len(posts))
	for _, post := range posts {
		authorIDs = append(authorIDs, post.UserID)
	}
	names.warm(ctx, utils.UniqueUint(authorIDs))

	items := make([]models.FeedItem, 0, len(posts))
	for _, post := range posts {
		item, err := a.assemble(ctx, post, liked[post.ID], names)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, nil
}

// BuildOne returns a single post enriched the same way as Build.
func (a *Assembler) BuildOne(ctx context.Context, postID, viewerID uint) (*models.FeedItem, error) {
	post, err := a.content.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	hasLiked, err := a.interactions.HasLiked(ctx, viewerID, postID)
	if err != nil {
		return nil, err
	}
	return a.assemble(ctx, post, hasLiked, newNameResolver(a.identity))
}

func (a *Assembler) assemble(ctx context.Context, post *models.Post, viewerHasLiked bool, names *nameResolver) (*models.FeedItem, error) {
	likeCount, err := a.interactions.LikesFor(ctx, post.ID)
	if err != nil {
		return nil, err
	}
	comments, err := a.interactions.CommentsFor(ctx, post.ID)
	if err != nil {
		return nil, err
	}

	views := make([]models.CommentView, 0, len(comments))
	for _, c := range comments {
		views = append(views, models.CommentView{
			Comment:  *c,
			Username: names.resolve(ctx, c.UserID),
		})
	}

	return &models.FeedItem{
		Post:           *post,
		Username:       names.resolve(ctx, post.UserID),
		LikeCount:      likeCount,
		CommentCount:   len(comments),
		ViewerHasLiked: viewerHasLiked,
		Comments:       views,
	}, nil
}

// nameResolver memoizes username lookups across one assembly pass so a
// user commenting on every post is fetched once.
type nameResolver struct {
	identity store.IdentityStore
	cache    map[uint]string
}

func newNameResolver(identity store.IdentityStore) *nameResolver {
	return &nameResolver{identity: identity, cache: map[uint]string{}}
}

func (r *nameResolver) warm(ctx context.Context, userIDs []uint) {
	for _, id := range userIDs {
		r.resolve(ctx, id)
	}
}

func (r *nameResolver) resolve(ctx context.Context, userID uint) string {
	if name, ok := r.cache[userID]; ok {
		return name
	}
	name := UnknownAuthor
	if user, err := r.identity.FindByID(ctx, userID); err == nil {
		name = user.Username
	} else if !errors.Is(err, models.ErrNotFound) {
		// lookup failures degrade to the placeholder rather than
		// failing the whole feed
		utils.Warnf("feed: resolve user %d: %v", userID, err)
	}
	r.cache[userID] = name
	return name
}
