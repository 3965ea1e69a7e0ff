package model

// PageName identifies the view currently shown in the app container.
type PageName string

const (
	PageIndex  PageName = "index"
	PageDetail PageName = "detail"
)

// AllCategories is the sentinel used when no category filter is active.
const AllCategories = "all"

// ControllerState is everything the page controller remembers about one
// page load. Only the controller mutates it; the session store persists it
// between the fragment requests of that page.
type ControllerState struct {
	CurrentPage      PageName `json:"current_page"`
	CurrentCategory  string   `json:"current_category"`
	CurrentPostsPage int      `json:"current_posts_page"`
	TotalPages       int      `json:"total_pages"`

	FeaturedPost *Post `json:"featured_post,omitempty"`
	// Category the cached featured post was fetched for.
	FeaturedCategory string `json:"featured_category,omitempty"`

	CurrentSlug string `json:"current_slug,omitempty"`

	PostsData      *Page[Post]     `json:"posts_data,omitempty"`
	CategoriesData *Page[Category] `json:"categories_data,omitempty"`
}

func NewControllerState() *ControllerState {
	return &ControllerState{
		CurrentPage:      PageIndex,
		CurrentCategory:  AllCategories,
		CurrentPostsPage: 1,
	}
}

// ResetFilters returns to the unfiltered first page and drops the featured post.
func (s *ControllerState) ResetFilters() {
	s.CurrentCategory = AllCategories
	s.CurrentPostsPage = 1
	s.FeaturedPost = nil
	s.FeaturedCategory = ""
}

// SelectCategory switches the filter, resetting pagination and the featured post.
func (s *ControllerState) SelectCategory(slug string) {
	if slug == "" {
		slug = AllCategories
	}
	s.CurrentCategory = slug
	s.CurrentPostsPage = 1
	s.FeaturedPost = nil
	s.FeaturedCategory = ""
}

// ClampPage bounds page to the listing last fetched. An empty listing
// still has page 1.
func (s *ControllerState) ClampPage(page int) int {
	return min(max(page, 1), max(s.TotalPages, 1))
}

// NeedsFeatured reports whether the featured post must be fetched for the current category.
func (s *ControllerState) NeedsFeatured() bool {
	return s.FeaturedPost == nil || s.FeaturedCategory != s.CurrentCategory
}

// Clone returns a deep enough copy for a render to mutate without touching the original.
func (s *ControllerState) Clone() *ControllerState {
	c := *s
	return &c
}
