package handle

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/yeisme/vidvault/pkg/configs"
	"github.com/yeisme/vidvault/pkg/internal/hub"
	"github.com/yeisme/vidvault/pkg/internal/service"
	"github.com/yeisme/vidvault/pkg/internal/types"
	nlog "github.com/yeisme/vidvault/pkg/log"
	"github.com/yeisme/vidvault/pkg/middleware"
	"github.com/yeisme/vidvault/pkg/token"
)

// WSHandlers 实时推送握手处理器.
type WSHandlers struct {
	Hub    *hub.Hub
	Tokens *token.Service
}

const wsBufferSize = 4 * 1024

var upgrader = websocket.Upgrader{
	ReadBufferSize:  wsBufferSize,
	WriteBufferSize: wsBufferSize,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}

		return origin == configs.GetConfig().CORS.Origin
	},
}

// Connect 握手：验证访问令牌（浏览器侧只能经 token 查询参数携带），
// 升级连接并加入租户房间与主体房间. 令牌到期时服务端关闭连接，
// 客户端带新令牌重连后重新入房.
//
//	@Summary		实时推送通道
//	@Tags			实时
//	@Param			token	query	string	true	"访问令牌"
//	@Success		101	{string}	string	"协议切换"
//	@Failure		401	{object}	types.APIError
//	@Router			/ws [get]
func (h *WSHandlers) Connect(c *gin.Context) {
	raw := middleware.ResolveToken(c)
	if raw == "" {
		c.JSON(http.StatusUnauthorized, types.APIError{Error: "authentication required"})
		return
	}

	claims, err := h.Tokens.VerifyAccess(raw)
	if err != nil {
		resp := types.APIError{Error: "invalid token"}
		if errors.Is(err, token.ErrExpired) {
			resp = types.APIError{Error: "token expired", Code: types.CodeTokenExpired}
		}

		c.JSON(http.StatusUnauthorized, resp)

		return
	}

	user, err := service.NewAuthService(c.Request.Context(), h.Tokens).
		GetActiveUser(c.Request.Context(), claims.Subject)
	if err != nil {
		c.JSON(http.StatusUnauthorized, types.APIError{Error: "invalid token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		nlog.Logger().Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := hub.NewClient(h.Hub, conn, user.ID, user.OrganizationID, claims.ExpiresAt.Time)

	h.Hub.Join(client, hub.OrgRoom(user.OrganizationID))
	h.Hub.Join(client, hub.UserRoom(user.ID))

	client.Start()
	client.Send(hub.EventConnected, gin.H{
		"subject_id":      user.ID,
		"organization_id": user.OrganizationID,
	})

	nlog.Logger().Info().
		Str("user", user.ID).
		Str("org", user.OrganizationID).
		Msg("realtime client connected")
}
