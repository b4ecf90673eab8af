// Copyright 2025 BookGenie Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	"github.com/emicklei/go-restful/v3"
	"github.com/juju/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/bookgenie-io/bookgenie/base/log"
	"github.com/bookgenie-io/bookgenie/config"
	"github.com/bookgenie-io/bookgenie/logics"
	"github.com/bookgenie-io/bookgenie/storage/artifact"
	"github.com/bookgenie-io/bookgenie/storage/data"
)

// RestServer implements a REST-ful API server.
type RestServer struct {
	Config        *config.Config
	DataClient    data.Database
	CatalogHolder *artifact.Holder
	WebService    *restful.WebService
}

// NewRestServer creates a REST-ful API server.
func NewRestServer(cfg *config.Config, dataClient data.Database, holder *artifact.Holder) *RestServer {
	return &RestServer{
		Config:        cfg,
		DataClient:    dataClient,
		CatalogHolder: holder,
		WebService:    new(restful.WebService),
	}
}

// StartHttpServer starts the REST-ful API server.
func (s *RestServer) StartHttpServer() {
	// register restful APIs
	s.CreateWebService()
	restful.DefaultContainer.Add(s.WebService)
	// register openapi spec
	specConfig := restfulspec.Config{
		WebServices: restful.RegisteredWebServices(),
		APIPath:     "/apidocs.json",
	}
	restful.DefaultContainer.Add(restfulspec.NewOpenAPIService(specConfig))
	// register prometheus
	http.Handle("/metrics", promhttp.Handler())

	log.Logger().Info("start http server",
		zap.String("url", fmt.Sprintf("http://%s:%d", s.Config.Server.HttpHost, s.Config.Server.HttpPort)))
	log.Logger().Fatal("failed to start http server",
		zap.Error(http.ListenAndServe(fmt.Sprintf("%s:%d",
			s.Config.Server.HttpHost, s.Config.Server.HttpPort), nil)))
}

func LogFilter(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
	chain.ProcessFilter(req, resp)
	log.Logger().Info(fmt.Sprintf("%s %s", req.Request.Method, req.Request.URL),
		zap.Int("status_code", resp.StatusCode()))
}

// Success is the payload of operations without content to return.
type Success struct {
	RowAffected int
}

// TokenResponse carries a session token.
type TokenResponse struct {
	Token string `json:"token"`
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type cartRequest struct {
	BookTitle string `json:"book_title"`
}

type checkoutRequest struct {
	FullName string `json:"full_name"`
	Address  string `json:"address"`
	Phone    string `json:"phone"`
}

type profileResponse struct {
	Orders    []data.Order    `json:"orders"`
	Bookmarks []data.Bookmark `json:"bookmarks"`
}

// CreateWebService creates web service.
func (s *RestServer) CreateWebService() {
	ws := s.WebService
	ws.Consumes(restful.MIME_JSON).Produces(restful.MIME_JSON)
	ws.Path("/api/")
	ws.Filter(LogFilter)

	/* Recommendations */

	// Get popular books
	ws.Route(ws.GET("/popular").To(s.getPopular).
		Doc("Get the most popular books.").
		Metadata(restfulspec.KeyOpenAPITags, []string{"recommendation"}).
		Writes([]logics.BookStats{}))
	// Get recommended books
	ws.Route(ws.GET("/recommend").To(s.getRecommend).
		Doc("Get books similar to a book matching the query.").
		Metadata(restfulspec.KeyOpenAPITags, []string{"recommendation"}).
		Param(ws.QueryParameter("query", "substring of the seed book title").DataType("string")).
		Param(ws.QueryParameter("min-rating", "minimal average rating of returned books").DataType("float")).
		Writes([]logics.ScoredBook{}))

	/* Accounts */

	// Sign up
	ws.Route(ws.POST("/signup").To(s.signup).
		Doc("Create an account.").
		Metadata(restfulspec.KeyOpenAPITags, []string{"account"}).
		Reads(credentialsRequest{}).
		Writes(Success{}))
	// Log in
	ws.Route(ws.POST("/login").To(s.login).
		Doc("Log in and receive a session token.").
		Metadata(restfulspec.KeyOpenAPITags, []string{"account"}).
		Reads(credentialsRequest{}).
		Writes(TokenResponse{}))
	// Get profile
	ws.Route(ws.GET("/profile").To(s.getProfile).Filter(s.authenticate).
		Doc("Get the orders and bookmarks of the current user.").
		Metadata(restfulspec.KeyOpenAPITags, []string{"account"}).
		Writes(profileResponse{}))

	/* Cart and orders */

	// Get cart
	ws.Route(ws.GET("/cart").To(s.getCart).Filter(s.authenticate).
		Doc("Get the cart of the current user.").
		Metadata(restfulspec.KeyOpenAPITags, []string{"cart"}).
		Writes([]data.CartItem{}))
	// Add to cart
	ws.Route(ws.POST("/cart").To(s.insertCartItem).Filter(s.authenticate).
		Doc("Add a book to the cart of the current user.").
		Metadata(restfulspec.KeyOpenAPITags, []string{"cart"}).
		Reads(cartRequest{}).
		Writes(Success{}))
	// Buy now
	ws.Route(ws.POST("/cart/buy-now").To(s.buyNow).Filter(s.authenticate).
		Doc("Replace the cart with a single book, ready for checkout.").
		Metadata(restfulspec.KeyOpenAPITags, []string{"cart"}).
		Reads(cartRequest{}).
		Writes(Success{}))
	// Checkout
	ws.Route(ws.POST("/checkout").To(s.checkout).Filter(s.authenticate).
		Doc("Place an order for all books in the cart and empty it.").
		Metadata(restfulspec.KeyOpenAPITags, []string{"order"}).
		Reads(checkoutRequest{}).
		Writes(data.Order{}))
	// Get orders
	ws.Route(ws.GET("/orders").To(s.getOrders).Filter(s.authenticate).
		Doc("Get the orders of the current user, newest first.").
		Metadata(restfulspec.KeyOpenAPITags, []string{"order"}).
		Writes([]data.Order{}))

	/* Bookmarks and feedback */

	// Get bookmarks
	ws.Route(ws.GET("/bookmark").To(s.getBookmarks).Filter(s.authenticate).
		Doc("Get the bookmarks of the current user.").
		Metadata(restfulspec.KeyOpenAPITags, []string{"bookmark"}).
		Writes([]data.Bookmark{}))
	// Add bookmark
	ws.Route(ws.POST("/bookmark").To(s.insertBookmark).Filter(s.authenticate).
		Doc("Bookmark a book.").
		Metadata(restfulspec.KeyOpenAPITags, []string{"bookmark"}).
		Reads(cartRequest{}).
		Writes(Success{}))
	// Send feedback
	ws.Route(ws.POST("/feedback").To(s.insertFeedback).
		Doc("Send a contact form message.").
		Metadata(restfulspec.KeyOpenAPITags, []string{"feedback"}).
		Reads(data.Feedback{}).
		Writes(Success{}))
}

func (s *RestServer) getPopular(request *restful.Request, response *restful.Response) {
	start := time.Now()
	catalog := s.CatalogHolder.Load()
	if catalog == nil {
		InternalServerError(response, errors.New("no catalog loaded"))
		return
	}
	Ok(response, catalog.Popular)
	GetPopularSeconds.Observe(time.Since(start).Seconds())
}

func (s *RestServer) getRecommend(request *restful.Request, response *restful.Response) {
	start := time.Now()
	query := request.QueryParameter("query")
	if strings.TrimSpace(query) == "" {
		BadRequest(response, errors.New("query is required"))
		return
	}
	minRating, err := ParseFloat(request, "min-rating", 0)
	if err != nil {
		BadRequest(response, err)
		return
	}
	catalog := s.CatalogHolder.Load()
	if catalog == nil {
		InternalServerError(response, errors.New("no catalog loaded"))
		return
	}
	books, err := catalog.Recommend(s.Config.Collaborative, query, minRating)
	if errors.Is(err, logics.ErrNoMatchFound) {
		NoMatchFoundTotal.Inc()
		PageNotFound(response, err)
		return
	} else if err != nil {
		InternalServerError(response, err)
		return
	}
	Ok(response, books)
	GetRecommendSeconds.Observe(time.Since(start).Seconds())
}

func (s *RestServer) signup(request *restful.Request, response *restful.Response) {
	var credentials credentialsRequest
	if err := request.ReadEntity(&credentials); err != nil {
		BadRequest(response, err)
		return
	}
	if credentials.Username == "" || credentials.Password == "" {
		BadRequest(response, errors.New("username and password are required"))
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(credentials.Password), bcrypt.DefaultCost)
	if err != nil {
		InternalServerError(response, err)
		return
	}
	_, err = s.DataClient.InsertUser(request.Request.Context(), data.User{
		Username: credentials.Username,
		Password: string(hash),
	})
	if errors.Is(err, data.ErrUserExists) {
		BadRequest(response, errors.New("username already exists"))
		return
	} else if err != nil {
		InternalServerError(response, err)
		return
	}
	Ok(response, Success{RowAffected: 1})
}

func (s *RestServer) login(request *restful.Request, response *restful.Response) {
	var credentials credentialsRequest
	if err := request.ReadEntity(&credentials); err != nil {
		BadRequest(response, err)
		return
	}
	user, err := s.DataClient.GetUser(request.Request.Context(), credentials.Username)
	if errors.Is(err, data.ErrUserNotExist) {
		Unauthorized(response, errors.New("invalid username or password"))
		return
	} else if err != nil {
		InternalServerError(response, err)
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(credentials.Password)) != nil {
		Unauthorized(response, errors.New("invalid username or password"))
		return
	}
	token, err := s.issueToken(user)
	if err != nil {
		InternalServerError(response, err)
		return
	}
	Ok(response, TokenResponse{Token: token})
}

func (s *RestServer) getProfile(request *restful.Request, response *restful.Response) {
	userId := sessionUserId(request)
	orders, err := s.DataClient.GetOrders(request.Request.Context(), userId)
	if err != nil {
		InternalServerError(response, err)
		return
	}
	bookmarks, err := s.DataClient.GetBookmarks(request.Request.Context(), userId)
	if err != nil {
		InternalServerError(response, err)
		return
	}
	Ok(response, profileResponse{Orders: orders, Bookmarks: bookmarks})
}

func (s *RestServer) getCart(request *restful.Request, response *restful.Response) {
	items, err := s.DataClient.GetCartItems(request.Request.Context(), sessionUserId(request))
	if err != nil {
		InternalServerError(response, err)
		return
	}
	Ok(response, items)
}

func (s *RestServer) insertCartItem(request *restful.Request, response *restful.Response) {
	var body cartRequest
	if err := request.ReadEntity(&body); err != nil {
		BadRequest(response, err)
		return
	}
	if body.BookTitle == "" {
		BadRequest(response, errors.New("book_title is required"))
		return
	}
	if err := s.DataClient.InsertCartItem(request.Request.Context(), sessionUserId(request), body.BookTitle); err != nil {
		InternalServerError(response, err)
		return
	}
	Ok(response, Success{RowAffected: 1})
}

func (s *RestServer) buyNow(request *restful.Request, response *restful.Response) {
	var body cartRequest
	if err := request.ReadEntity(&body); err != nil {
		BadRequest(response, err)
		return
	}
	if body.BookTitle == "" {
		BadRequest(response, errors.New("book_title is required"))
		return
	}
	userId := sessionUserId(request)
	if err := s.DataClient.DeleteCartItems(request.Request.Context(), userId); err != nil {
		InternalServerError(response, err)
		return
	}
	if err := s.DataClient.InsertCartItem(request.Request.Context(), userId, body.BookTitle); err != nil {
		InternalServerError(response, err)
		return
	}
	Ok(response, Success{RowAffected: 1})
}

func (s *RestServer) checkout(request *restful.Request, response *restful.Response) {
	var body checkoutRequest
	if err := request.ReadEntity(&body); err != nil {
		BadRequest(response, err)
		return
	}
	userId := sessionUserId(request)
	items, err := s.DataClient.GetCartItems(request.Request.Context(), userId)
	if err != nil {
		InternalServerError(response, err)
		return
	}
	if len(items) == 0 {
		BadRequest(response, errors.New("cart is empty"))
		return
	}
	order, err := s.DataClient.InsertOrder(request.Request.Context(), data.Order{
		UserId: userId,
		BookTitles: strings.Join(lo.Map(items, func(item data.CartItem, _ int) string {
			return item.BookTitle
		}), ", "),
		FullName: body.FullName,
		Address:  body.Address,
		Phone:    body.Phone,
	})
	if err != nil {
		InternalServerError(response, err)
		return
	}
	if err = s.DataClient.DeleteCartItems(request.Request.Context(), userId); err != nil {
		InternalServerError(response, err)
		return
	}
	Ok(response, order)
}

func (s *RestServer) getOrders(request *restful.Request, response *restful.Response) {
	orders, err := s.DataClient.GetOrders(request.Request.Context(), sessionUserId(request))
	if err != nil {
		InternalServerError(response, err)
		return
	}
	Ok(response, orders)
}

func (s *RestServer) getBookmarks(request *restful.Request, response *restful.Response) {
	bookmarks, err := s.DataClient.GetBookmarks(request.Request.Context(), sessionUserId(request))
	if err != nil {
		InternalServerError(response, err)
		return
	}
	Ok(response, bookmarks)
}

func (s *RestServer) insertBookmark(request *restful.Request, response *restful.Response) {
	var body cartRequest
	if err := request.ReadEntity(&body); err != nil {
		BadRequest(response, err)
		return
	}
	if body.BookTitle == "" {
		BadRequest(response, errors.New("book_title is required"))
		return
	}
	err := s.DataClient.InsertBookmark(request.Request.Context(), sessionUserId(request), body.BookTitle)
	if errors.Is(err, data.ErrBookmarkExists) {
		BadRequest(response, errors.New("already bookmarked"))
		return
	} else if err != nil {
		InternalServerError(response, err)
		return
	}
	Ok(response, Success{RowAffected: 1})
}

func (s *RestServer) insertFeedback(request *restful.Request, response *restful.Response) {
	var feedback data.Feedback
	if err := request.ReadEntity(&feedback); err != nil {
		BadRequest(response, err)
		return
	}
	if feedback.Message == "" {
		BadRequest(response, errors.New("message is required"))
		return
	}
	if err := s.DataClient.InsertFeedback(request.Request.Context(), feedback); err != nil {
		InternalServerError(response, err)
		return
	}
	Ok(response, Success{RowAffected: 1})
}

// ParseFloat parses a float query parameter with a fallback value.
func ParseFloat(request *restful.Request, name string, fallback float32) (float32, error) {
	valueString := request.QueryParameter(name)
	if valueString == "" {
		return fallback, nil
	}
	value, err := strconv.ParseFloat(valueString, 32)
	if err != nil {
		return 0, errors.Trace(err)
	}
	return float32(value), nil
}

// BadRequest returns a bad request error.
func BadRequest(response *restful.Response, err error) {
	response.Header().Set("Access-Control-Allow-Origin", "*")
	log.Logger().Error("bad request", zap.Error(err))
	if err = response.WriteError(http.StatusBadRequest, err); err != nil {
		log.Logger().Error("failed to write error", zap.Error(err))
	}
}

// InternalServerError returns an internal server error.
func InternalServerError(response *restful.Response, err error) {
	response.Header().Set("Access-Control-Allow-Origin", "*")
	log.Logger().Error("internal server error", zap.Error(err))
	if err = response.WriteError(http.StatusInternalServerError, err); err != nil {
		log.Logger().Error("failed to write error", zap.Error(err))
	}
}

// PageNotFound returns a not found error.
func PageNotFound(response *restful.Response, err error) {
	response.Header().Set("Access-Control-Allow-Origin", "*")
	if err := response.WriteError(http.StatusNotFound, err); err != nil {
		log.Logger().Error("failed to write error", zap.Error(err))
	}
}

// Ok sends the content as JSON to the client.
func Ok(response *restful.Response, content interface{}) {
	response.Header().Set("Access-Control-Allow-Origin", "*")
	if err := response.WriteAsJson(content); err != nil {
		log.Logger().Error("failed to write json", zap.Error(err))
	}
}
