package http

import (
	"net/http"

	"anjo/internal/notify"
)

type notificationList struct {
	Notifications []notify.Notification `json:"notifications"`
	Unread        int                   `json:"unread"`
}

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	o := owner(r)
	NewResponse().JSON(notificationList{
		Notifications: s.inbox.List(o),
		Unread:        s.inbox.UnreadCount(o),
	}).Write(w)
}

func (s *Server) handleMarkNotificationsRead(w http.ResponseWriter, r *http.Request) {
	s.inbox.MarkAllRead(owner(r))
	NewResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleClearNotifications(w http.ResponseWriter, r *http.Request) {
	s.inbox.Clear(owner(r))
	NewResponse().Status(http.StatusNoContent).Write(w)
}
