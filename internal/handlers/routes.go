package handlers

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/todoshare/backend/internal/middleware"
)

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	APIPrefix string
	Users     UserService
	Friends   FriendService
	Lists     ListService
	History   HistoryService
	Tokens    middleware.TokenVerifier
	Limiter   middleware.RateLimiter
	Database  Pinger
}

// RegisterRoutes wires HTTP handlers into router. Routes are matched in
// registration order, so a route with a literal segment is registered before
// any route that has a variable in the same position.
func RegisterRoutes(router *mux.Router, deps Dependencies) {
	prefix := "/" + strings.Trim(deps.APIPrefix, "/")
	if prefix == "/" {
		prefix = ""
	}

	health := HealthHandler{Database: deps.Database}
	users := UserHandler{Users: deps.Users}
	friends := FriendHandler{Friends: deps.Friends}
	lists := ListHandler{Lists: deps.Lists}
	history := HistoryHandler{History: deps.History}

	router.NotFoundHandler = http.HandlerFunc(routeNotFound)
	router.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)
	router.Use(middleware.TagRoute)

	gate := middleware.Authenticate(deps.Tokens)
	handle := func(pattern string, h http.Handler) {
		method, path, _ := strings.Cut(pattern, " ")
		router.Handle(prefix+path, h).Methods(method)
	}
	open := func(pattern string, h http.HandlerFunc) {
		handle(pattern, h)
	}
	secured := func(pattern string, h http.HandlerFunc) {
		handle(pattern, gate(h))
	}
	throttled := func(pattern, scope string, h http.HandlerFunc) {
		handle(pattern, middleware.Throttle(deps.Limiter, scope)(h))
	}

	router.HandleFunc("/healthz", health.Handle)

	throttled("POST /users/signup", "signup", users.SignUp)
	throttled("POST /users/login", "login", users.Login)
	open("POST /users/refresh", users.Refresh)
	open("GET /users/view/all", users.All)
	secured("POST /users/logout/{userId}", users.Logout)
	secured("POST /users/{userId}/delete", users.Delete)
	secured("GET /users/{userId}/details", users.Details)

	secured("GET /friends/view/friend/request/sent/{userId}", friends.Sent)
	secured("GET /friends/view/friend/request/received/{userId}", friends.Received)
	secured("GET /friends/view/friend/request/recieved/{userId}", friends.Received)
	secured("GET /friends/view/friends/{userId}", friends.ListFriends)
	secured("POST /friends/send/friend/request", friends.Send)
	secured("POST /friends/accept/friend/request", friends.Accept)
	secured("POST /friends/reject/friend/request", friends.Reject)
	secured("POST /friends/cancel/friend/request", friends.Cancel)

	secured("POST /lists/addList", lists.AddList)
	secured("PUT /lists/{listId}/updateList", lists.UpdateList)
	secured("POST /lists/delete/{listId}", lists.DeleteList)
	secured("POST /lists/view/all/public/lists", lists.PublicLists)
	secured("GET /lists/view/all/{userId}", lists.ListsOf)

	secured("POST /items/additem", lists.AddItem)
	secured("POST /items/delete/{itemId}", lists.DeleteItem)
	secured("GET /items/view/all/{listId}", lists.Items)
	secured("GET /items/{itemId}/details", lists.ItemDetails)
	secured("PUT /items/edititem/{itemId}", lists.EditItem)
	secured("PUT /items/addSubItem/{itemId}", lists.AddSubItem)
	secured("PUT /items/deleteSubItem/{itemId}", lists.DeleteSubItem)
	secured("PUT /items/{itemId}/updateSubItem", lists.UpdateSubItem)

	secured("POST /history/addHistory", history.Add)
	secured("POST /history/deleteHistory", history.Delete)
	secured("POST /history/getHistory", history.List)
}
