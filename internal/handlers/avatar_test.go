package handlers

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"mime/multipart"
	"net/http"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jpegBytes(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}))
	return buf.Bytes()
}

func multipartAvatar(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("avatar", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return &body, writer.FormDataContentType()
}

func (e testEnv) uploadAvatar(t *testing.T, token, filename string, content []byte) *http.Response {
	t.Helper()

	body, contentType := multipartAvatar(t, filename, content)
	req, err := http.NewRequest(http.MethodPost, e.server.URL+"/users/me/avatar", body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	return resp
}

func TestUploadAvatarNormalizesTo250PNG(t *testing.T) {
	env := newTestEnv(t)
	registered := env.register(t, "ada@example.com")
	userID := registered.User["id"].(string)

	resp := env.uploadAvatar(t, registered.Token, "portrait.jpg", jpegBytes(t, 640, 480))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	stored, err := env.users.GetAvatar(context.Background(), userID)
	require.NoError(t, err)
	require.NotEmpty(t, stored)

	decoded, err := png.Decode(bytes.NewReader(stored))
	require.NoError(t, err, "stored avatar must be a PNG")
	bounds := decoded.Bounds()
	assert.Equal(t, 250, bounds.Dx())
	assert.Equal(t, 250, bounds.Dy())
}

func TestUploadAvatarReplacesPrevious(t *testing.T) {
	env := newTestEnv(t)
	registered := env.register(t, "ada@example.com")
	userID := registered.User["id"].(string)

	require.Equal(t, http.StatusOK, env.uploadAvatar(t, registered.Token, "one.jpg", jpegBytes(t, 100, 100)).StatusCode)
	first, err := env.users.GetAvatar(context.Background(), userID)
	require.NoError(t, err)

	require.Equal(t, http.StatusOK, env.uploadAvatar(t, registered.Token, "two.jpg", jpegBytes(t, 300, 200)).StatusCode)
	second, err := env.users.GetAvatar(context.Background(), userID)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestUploadAvatarRejectsOversize(t *testing.T) {
	env := newTestEnv(t)
	registered := env.register(t, "ada@example.com")
	userID := registered.User["id"].(string)

	resp := env.uploadAvatar(t, registered.Token, "huge.jpg", make([]byte, 2000000))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	stored, err := env.users.GetAvatar(context.Background(), userID)
	require.NoError(t, err)
	assert.Empty(t, stored, "rejected upload must not persist anything")
}

func TestUploadAvatarRejectsExtension(t *testing.T) {
	env := newTestEnv(t)
	registered := env.register(t, "ada@example.com")

	for _, filename := range []string{"anim.gif", "doc.pdf", "noext", "shout.JPG"} {
		resp := env.uploadAvatar(t, registered.Token, filename, jpegBytes(t, 50, 50))
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, "filename %q must be rejected", filename)
	}
}

func TestUploadAvatarRejectsUndecodableBody(t *testing.T) {
	env := newTestEnv(t)
	registered := env.register(t, "ada@example.com")

	resp := env.uploadAvatar(t, registered.Token, "fake.jpg", []byte("not an image at all"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUploadAvatarMissingField(t *testing.T) {
	env := newTestEnv(t)
	registered := env.register(t, "ada@example.com")

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	require.NoError(t, writer.WriteField("other", "value"))
	require.NoError(t, writer.Close())

	req, err := http.NewRequest(http.MethodPost, env.server.URL+"/users/me/avatar", &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+registered.Token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestFetchAvatar(t *testing.T) {
	env := newTestEnv(t)
	registered := env.register(t, "ada@example.com")
	userID := registered.User["id"].(string)

	require.Equal(t, http.StatusOK, env.uploadAvatar(t, registered.Token, "portrait.jpg", jpegBytes(t, 640, 480)).StatusCode)

	// public route, no token
	resp, raw := env.do(t, http.MethodGet, "/users/"+userID+"/avatar", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))

	decoded, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, 250, decoded.Bounds().Dx())
}

func TestFetchAvatarNotFound(t *testing.T) {
	env := newTestEnv(t)
	registered := env.register(t, "ada@example.com")
	userID := registered.User["id"].(string)

	// existing user, no avatar
	resp, raw := env.do(t, http.MethodGet, "/users/"+userID+"/avatar", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Empty(t, raw)

	// unknown user id
	resp, raw = env.do(t, http.MethodGet, "/users/does-not-exist/avatar", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Empty(t, raw)
}

func TestDeleteAccountDropsCachedAvatar(t *testing.T) {
	mr := miniredis.RunT(t)
	cacheClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { cacheClient.Close() })

	env := newTestEnvWithCache(t, cacheClient)
	registered := env.register(t, "ada@example.com")
	userID := registered.User["id"].(string)

	require.Equal(t, http.StatusOK, env.uploadAvatar(t, registered.Token, "portrait.jpg", jpegBytes(t, 640, 480)).StatusCode)

	// prime the cache through the public route
	resp, _ := env.do(t, http.MethodGet, "/users/"+userID+"/avatar", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = env.do(t, http.MethodDelete, "/users/me", registered.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = env.do(t, http.MethodGet, "/users/"+userID+"/avatar", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode, "a deleted account must not keep serving its avatar from the cache")
}

func TestDeleteAvatarDropsCachedCopy(t *testing.T) {
	mr := miniredis.RunT(t)
	cacheClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { cacheClient.Close() })

	env := newTestEnvWithCache(t, cacheClient)
	registered := env.register(t, "ada@example.com")
	userID := registered.User["id"].(string)

	require.Equal(t, http.StatusOK, env.uploadAvatar(t, registered.Token, "portrait.jpg", jpegBytes(t, 640, 480)).StatusCode)

	resp, _ := env.do(t, http.MethodGet, "/users/"+userID+"/avatar", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = env.do(t, http.MethodDelete, "/users/me/avatar", registered.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = env.do(t, http.MethodGet, "/users/"+userID+"/avatar", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDeleteAvatar(t *testing.T) {
	env := newTestEnv(t)
	registered := env.register(t, "ada@example.com")
	userID := registered.User["id"].(string)

	require.Equal(t, http.StatusOK, env.uploadAvatar(t, registered.Token, "portrait.jpg", jpegBytes(t, 640, 480)).StatusCode)

	resp, raw := env.do(t, http.MethodDelete, "/users/me/avatar", registered.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, raw)

	resp, _ = env.do(t, http.MethodGet, "/users/"+userID+"/avatar", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
