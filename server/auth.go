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
	"net/http"
	"strings"
	"time"

	"github.com/emicklei/go-restful/v3"
	"github.com/golang-jwt/jwt/v5"
	"github.com/juju/errors"
	"go.uber.org/zap"

	"github.com/bookgenie-io/bookgenie/base/log"
	"github.com/bookgenie-io/bookgenie/storage/data"
)

const userIdAttribute = "user_id"

type sessionClaims struct {
	UserId   uint   `json:"uid"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// issueToken creates a signed session token for a logged in user.
func (s *RestServer) issueToken(user data.User) (string, error) {
	claims := sessionClaims{
		UserId:   user.Id,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().
				Add(time.Duration(s.Config.Server.TokenTTLHours) * time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.Config.Server.JWTSecret))
	if err != nil {
		return "", errors.Trace(err)
	}
	return signed, nil
}

// authenticate is a route filter requiring a valid bearer token. The user id from the
// token is attached to the request.
func (s *RestServer) authenticate(request *restful.Request, response *restful.Response, chain *restful.FilterChain) {
	header := request.HeaderParameter("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		Unauthorized(response, errors.New("missing bearer token"))
		return
	}
	claims := new(sessionClaims)
	token, err := jwt.ParseWithClaims(strings.TrimPrefix(header, "Bearer "), claims,
		func(token *jwt.Token) (any, error) {
			return []byte(s.Config.Server.JWTSecret), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		Unauthorized(response, errors.New("invalid bearer token"))
		return
	}
	request.SetAttribute(userIdAttribute, claims.UserId)
	chain.ProcessFilter(request, response)
}

func sessionUserId(request *restful.Request) uint {
	userId, _ := request.Attribute(userIdAttribute).(uint)
	return userId
}

// Unauthorized returns an unauthorized error.
func Unauthorized(response *restful.Response, err error) {
	response.Header().Set("Access-Control-Allow-Origin", "*")
	if err := response.WriteError(http.StatusUnauthorized, err); err != nil {
		log.Logger().Error("failed to write error", zap.Error(err))
	}
}
