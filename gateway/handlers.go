package gateway

import (
	"github.com/alexandre-normand/steward/community"
	"github.com/alexandre-normand/steward/session"
	"github.com/gin-gonic/gin"
	"net/http"
)

const checkboxOn = "on"

// creditsResponse is the credit total of a member
type creditsResponse struct {
	MemberID string `json:"memberID"`
	Credits  int64  `json:"credits"`
}

// dashboardResponse is what the dashboard page shows a signed-in member
type dashboardResponse struct {
	MemberID    string              `json:"memberID"`
	Name        string              `json:"name"`
	Communities []session.Community `json:"communities"`
	Credits     int64               `json:"credits"`
}

func (g *Gateway) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (g *Gateway) getSettings(c *gin.Context) {
	communityID := c.Param("communityID")

	settings, err := g.store.GetSettings(communityID)
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "failed to load settings"})
		return
	}

	c.JSON(http.StatusOK, settings)
}

func (g *Gateway) putSettings(c *gin.Context) {
	communityID := c.Param("communityID")

	var settings community.Settings
	if err := c.ShouldBindJSON(&settings); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid settings: " + err.Error()})
		return
	}

	if err := g.store.PutSettings(communityID, settings); err != nil {
		c.Error(err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "failed to save"})
		return
	}

	id, _ := identityOf(c)
	g.log.Printf("Settings of community [%s] updated by [%s]: %+v\n", communityID, id.MemberID, settings)

	c.JSON(http.StatusOK, settings)
}

// postSettingsForm saves the settings submitted by the dashboard form. Unchecked checkboxes
// aren't submitted at all
func (g *Gateway) postSettingsForm(c *gin.Context) {
	communityID := c.Param("communityID")

	settings := community.Settings{
		AutoReplyEnabled:  c.PostForm("autoReplyEnabled") == checkboxOn,
		AutoReplyText:     c.PostForm("autoReplyText"),
		ModerationEnabled: c.PostForm("moderationEnabled") == checkboxOn,
	}

	if err := g.store.PutSettings(communityID, settings); err != nil {
		c.Error(err)
		c.String(http.StatusServiceUnavailable, "failed to save")
		return
	}

	id, _ := identityOf(c)
	g.log.Printf("Settings of community [%s] updated by [%s]: %+v\n", communityID, id.MemberID, settings)

	c.Redirect(http.StatusSeeOther, "/communities/"+communityID+"/settings")
}

func (g *Gateway) getMemberCredits(c *gin.Context) {
	g.writeCredits(c, c.Param("memberID"))
}

func (g *Gateway) getOwnCredits(c *gin.Context) {
	id, _ := identityOf(c)
	g.writeCredits(c, id.MemberID)
}

func (g *Gateway) writeCredits(c *gin.Context, memberID string) {
	credits, err := g.store.GetCredits(memberID)
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "failed to load credits"})
		return
	}

	c.JSON(http.StatusOK, creditsResponse{MemberID: memberID, Credits: credits})
}

// dashboard lists the communities the caller administers and the bot is a member of along
// with the caller's credits
func (g *Gateway) dashboard(c *gin.Context) {
	id, _ := identityOf(c)

	communities := make([]session.Community, 0)
	for _, ac := range id.AdminCommunities() {
		if g.membership.IsMember(ac.ID) {
			communities = append(communities, ac)
		}
	}

	credits, err := g.store.GetCredits(id.MemberID)
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "failed to load credits"})
		return
	}

	c.JSON(http.StatusOK, dashboardResponse{MemberID: id.MemberID, Name: id.Name, Communities: communities, Credits: credits})
}
