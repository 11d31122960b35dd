package http

import (
	"net/http"

	"github.com/dkeye/Huddle/internal/adapters/rtc"
	"github.com/dkeye/Huddle/internal/app"
	"github.com/dkeye/Huddle/internal/app/orch"
	"github.com/dkeye/Huddle/internal/config"
	"github.com/dkeye/Huddle/internal/domain"
	"github.com/gin-gonic/gin"
)

// handlers are read-only views over the coordinator's state.
type handlers struct {
	orch *orch.Orchestrator
	ice  []config.ICEServer
}

type groupView struct {
	app.GroupInfo
	VoiceCount int `json:"voiceCount"`
}

func (h *handlers) listGroups(c *gin.Context) {
	infos := h.orch.Groups.List()
	out := make([]groupView, 0, len(infos))
	for _, info := range infos {
		out = append(out, groupView{
			GroupInfo:  info,
			VoiceCount: len(h.orch.Presence.Participants(info.ID)),
		})
	}
	c.JSON(http.StatusOK, gin.H{"groups": out})
}

func (h *handlers) getGroup(c *gin.Context) {
	g, ok := h.orch.Groups.Get(domain.GroupID(c.Param("id")))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": app.ErrGroupNotFound.Error()})
		return
	}
	c.JSON(http.StatusOK, g)
}

func (h *handlers) voiceParticipants(c *gin.Context) {
	id := domain.GroupID(c.Param("id"))
	if !h.orch.Groups.Exists(id) {
		c.JSON(http.StatusNotFound, gin.H{"error": app.ErrGroupNotFound.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"groupId":      id,
		"participants": h.orch.Presence.Participants(id),
	})
}

func (h *handlers) iceServers(c *gin.Context) {
	conf := rtc.Configuration(h.ice)
	servers := make([]gin.H, 0, len(conf.ICEServers))
	for _, s := range conf.ICEServers {
		srv := gin.H{"urls": s.URLs}
		if s.Username != "" {
			srv["username"] = s.Username
			srv["credential"] = s.Credential
		}
		servers = append(servers, srv)
	}
	c.JSON(http.StatusOK, gin.H{"iceServers": servers})
}

func (h *handlers) stats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"connections": h.orch.Hub.Count(),
		"identities":  h.orch.Identities.Count(),
		"groups":      len(h.orch.Groups.List()),
	})
}
