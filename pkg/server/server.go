package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"

	"codeberg.org/miketth/layoutfix/pkg/layouts"
	"codeberg.org/miketth/layoutfix/pkg/switcher"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var ErrSessionNotFound = errors.New("session not found")

const maxRequestSize = 1 << 20

type Server struct {
	// serializes session read-advance-write cycles
	sessionLock sync.Mutex

	switcher  *switcher.Switcher
	store     switcher.SessionStore
	detector  switcher.LayoutDetector
	activator switcher.LayoutActivator
	log       *zap.SugaredLogger
}

// New creates a Server. detector and activator may be nil when no OS
// integration is available.
func New(
	sw *switcher.Switcher,
	store switcher.SessionStore,
	detector switcher.LayoutDetector,
	activator switcher.LayoutActivator,
	log *zap.SugaredLogger,
) *Server {
	return &Server{
		switcher:  sw,
		store:     store,
		detector:  detector,
		activator: activator,
		log:       log,
	}
}

// Serve accepts connections until ctx is done. It returns ctx's error once
// every connection is closed.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		<-gctx.Done()
		_ = ln.Close()
		return nil
	})

	g.Go(func() error {
		for {
			conn, err := ln.Accept()
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				return fmt.Errorf("accept: %w", err)
			}

			g.Go(func() error {
				s.serveConn(gctx, conn)
				return nil
			})
		}
	})

	return g.Wait()
}

func (s *Server) serveConn(ctx context.Context, conn net.Conn) {
	stop := context.AfterFunc(ctx, func() {
		_ = conn.Close()
	})
	defer func() {
		stop()
		_ = conn.Close()
	}()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 4096), maxRequestSize)
	enc := json.NewEncoder(conn)

	for scanner.Scan() {
		var req Request
		var resp Response
		if err := json.Unmarshal(scanner.Bytes(), &req); err != nil {
			resp = errorResponse(fmt.Errorf("decode request: %w", err))
		} else {
			resp = s.Handle(ctx, req)
		}

		if err := enc.Encode(resp); err != nil {
			s.log.Debugw("write response", "error", err)
			return
		}
	}

	err := scanner.Err()
	if err == nil || ctx.Err() != nil {
		return
	}
	s.log.Debugw("read request", "error", err)

	if errors.Is(err, bufio.ErrTooLong) {
		resp := errorResponse(fmt.Errorf("request exceeds %d bytes: %w", maxRequestSize, err))
		if err := enc.Encode(resp); err != nil {
			s.log.Debugw("write response", "error", err)
		}
	}
}

func errorResponse(err error) Response {
	return Response{OK: false, Error: err.Error()}
}

// Handle executes a single request.
func (s *Server) Handle(ctx context.Context, req Request) Response {
	var resp Response
	var err error

	switch req.Op {
	case OpTranslate:
		resp, err = s.translate(ctx, req)
	case OpStart:
		resp, err = s.start(ctx, req)
	case OpNext:
		resp, err = s.next(ctx, req)
	case OpEnd:
		resp, err = s.end(req)
	case OpDetect:
		resp, err = s.detect(ctx)
	case OpLayouts:
		resp, err = s.listLayouts()
	default:
		err = fmt.Errorf("unknown op %q", req.Op)
	}

	if err != nil {
		s.log.Debugw("request failed", "op", req.Op, "error", err)
		return errorResponse(err)
	}

	resp.OK = true
	return resp
}

func (s *Server) translate(ctx context.Context, req Request) (Response, error) {
	from, err := s.sourceLayout(ctx, req.From)
	if err != nil {
		return Response{}, err
	}
	to, err := s.switcher.Registry().ParseName(req.To)
	if err != nil {
		return Response{}, fmt.Errorf("target layout: %w", err)
	}

	text, err := s.switcher.Translate(req.Text, from, to)
	if err != nil {
		return Response{}, err
	}

	if err := s.activate(ctx, req, to); err != nil {
		return Response{}, err
	}

	return Response{Text: text, Source: string(from), Target: string(to)}, nil
}

func (s *Server) start(ctx context.Context, req Request) (Response, error) {
	source, err := s.sourceLayout(ctx, req.Source)
	if err != nil {
		return Response{}, err
	}

	sess, err := s.switcher.StartSession(source, req.Text)
	if err != nil {
		return Response{}, err
	}

	id := req.Session
	if id == "" {
		id = uuid.NewString()
	}

	s.sessionLock.Lock()
	err = s.store.SetSession(id, sess.State())
	s.sessionLock.Unlock()
	if err != nil {
		return Response{}, fmt.Errorf("save session: %w", err)
	}

	if err := s.activate(ctx, req, sess.Target()); err != nil {
		return Response{}, err
	}

	s.log.Debugw("session started", "session", id, "source", source, "target", sess.Target())
	return sessionResponse(id, sess), nil
}

func (s *Server) next(ctx context.Context, req Request) (Response, error) {
	if req.Session == "" {
		return Response{}, errors.New("next needs a session")
	}

	s.sessionLock.Lock()
	sess, err := s.advance(req.Session)
	s.sessionLock.Unlock()
	if err != nil {
		return Response{}, err
	}

	if err := s.activate(ctx, req, sess.Target()); err != nil {
		return Response{}, err
	}

	return sessionResponse(req.Session, sess), nil
}

// end forgets a session so its rotation cannot be resumed.
func (s *Server) end(req Request) (Response, error) {
	if req.Session == "" {
		return Response{}, errors.New("end needs a session")
	}

	s.sessionLock.Lock()
	defer s.sessionLock.Unlock()

	_, ok, err := s.store.GetSession(req.Session)
	if err != nil {
		return Response{}, fmt.Errorf("load session: %w", err)
	}
	if !ok {
		return Response{}, fmt.Errorf("%q: %w", req.Session, ErrSessionNotFound)
	}

	if err := s.store.DeleteSession(req.Session); err != nil {
		return Response{}, fmt.Errorf("delete session: %w", err)
	}

	s.log.Debugw("session ended", "session", req.Session)
	return Response{Session: req.Session}, nil
}

func (s *Server) advance(id string) (*switcher.Session, error) {
	state, ok, err := s.store.GetSession(id)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%q: %w", id, ErrSessionNotFound)
	}

	sess, err := s.switcher.RestoreSession(state)
	if err != nil {
		return nil, err
	}
	sess.Next()

	if err := s.store.SetSession(id, sess.State()); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	return sess, nil
}

func sessionResponse(id string, sess *switcher.Session) Response {
	return Response{
		Text:    sess.Current(),
		Source:  string(sess.Source()),
		Target:  string(sess.Target()),
		Session: id,
	}
}

func (s *Server) detect(ctx context.Context) (Response, error) {
	if s.detector == nil {
		return Response{}, errors.New("layout detection is not available")
	}

	name, err := s.detector.ActiveLayout(ctx)
	if err != nil {
		return Response{}, fmt.Errorf("detect layout: %w", err)
	}
	return Response{Source: string(name)}, nil
}

func (s *Server) listLayouts() (Response, error) {
	var out []LayoutInfo
	for _, t := range s.switcher.Registry().Tables() {
		cycle, err := s.switcher.Cycle(t.Name())
		if err != nil {
			return Response{}, err
		}
		out = append(out, LayoutInfo{
			Name:     string(t.Name()),
			Alphabet: string(t.Alphabet()),
			Cycle:    names(cycle),
		})
	}
	return Response{Layouts: out}, nil
}

// sourceLayout parses name, or asks the detector when name is empty.
func (s *Server) sourceLayout(ctx context.Context, name string) (layouts.Name, error) {
	if name != "" {
		n, err := s.switcher.Registry().ParseName(name)
		if err != nil {
			return "", fmt.Errorf("source layout: %w", err)
		}
		return n, nil
	}

	if s.detector == nil {
		return "", errors.New("no source layout given and detection is not available")
	}
	n, err := s.detector.ActiveLayout(ctx)
	if err != nil {
		return "", fmt.Errorf("detect source layout: %w", err)
	}
	return n, nil
}

func (s *Server) activate(ctx context.Context, req Request, target layouts.Name) error {
	if !req.Activate {
		return nil
	}
	if s.activator == nil {
		return errors.New("layout activation is not available")
	}
	if err := s.activator.Activate(ctx, target); err != nil {
		return fmt.Errorf("activate %s: %w", target, err)
	}
	return nil
}
