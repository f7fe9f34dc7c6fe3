package zmq

import (
	"QuorumKV/internal/domain"
	"QuorumKV/internal/platform/config"
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/go-zeromq/zmq4"
	json "github.com/json-iterator/go"
	"go.uber.org/zap"
)

// Coordinator runs client and replica operations.
type Coordinator interface {
	Execute(ctx context.Context, op domain.Operation) domain.ReplicatedResponse
	ClusterSize() int
}

// ZmqApi serves operations over a ROUTER socket. Requests are handed to
// a pool of workers so slow quorum operations do not block the socket.
type ZmqApi struct {
	socket      zmq4.Socket
	port        int
	coordinator Coordinator
	ctx         context.Context
	cancel      context.CancelFunc
	jobs        chan job
	workers     int
	sendMu      sync.Mutex
	wg          sync.WaitGroup
	logger      *zap.Logger
}

type job struct {
	// routing frames up to and including the empty delimiter
	envelope [][]byte
	payload  []byte
}

func NewZmqApi(conf config.Config, coordinator Coordinator, logger *zap.Logger) *ZmqApi {
	ctx, cancel := context.WithCancel(context.Background())
	workers := runtime.NumCPU() * 4
	return &ZmqApi{
		socket:      zmq4.NewRouter(ctx),
		port:        conf.ZmqApiPort(),
		coordinator: coordinator,
		ctx:         ctx,
		cancel:      cancel,
		jobs:        make(chan job, workers*16),
		workers:     workers,
		logger:      logger.Named("zmq-api"),
	}
}

// Listen binds the socket and starts serving in the background.
func (z *ZmqApi) Listen() error {
	address := fmt.Sprintf("tcp://*:%d", z.port)
	if err := z.socket.Listen(address); err != nil {
		return fmt.Errorf("zmq listen %s: %w", address, err)
	}
	for i := 0; i < z.workers; i++ {
		z.wg.Add(1)
		go z.workerRoutine()
	}
	z.wg.Add(1)
	go z.receiveLoop()
	z.logger.Info("zmq api listening", zap.String("address", address), zap.Int("workers", z.workers))
	return nil
}

func (z *ZmqApi) receiveLoop() {
	defer z.wg.Done()
	for {
		msg, err := z.socket.Recv()
		if err != nil {
			if z.ctx.Err() != nil || errors.Is(err, zmq4.ErrClosedConn) {
				return
			}
			z.logger.Warn("recv failed", zap.Error(err))
			continue
		}
		if len(msg.Frames) < 2 {
			z.logger.Warn("dropping message without envelope", zap.Int("frames", len(msg.Frames)))
			continue
		}
		last := len(msg.Frames) - 1
		select {
		case z.jobs <- job{envelope: msg.Frames[:last], payload: msg.Frames[last]}:
		case <-z.ctx.Done():
			return
		}
	}
}

func (z *ZmqApi) workerRoutine() {
	defer z.wg.Done()
	for {
		select {
		case j := <-z.jobs:
			z.reply(j.envelope, z.processRequest(j.payload))
		case <-z.ctx.Done():
			return
		}
	}
}

func (z *ZmqApi) processRequest(payload []byte) ApiResponse {
	var req ApiRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		z.logger.Debug("malformed request", zap.Error(err))
		return NewApiResponse(domain.NewResponse(domain.StatusBadRequest))
	}
	op, err := req.Operation(z.coordinator.ClusterSize())
	if err != nil {
		z.logger.Debug("invalid request", zap.String("id", req.Id), zap.Error(err))
		return NewApiResponse(domain.NewResponse(domain.StatusBadRequest))
	}
	return NewApiResponse(z.coordinator.Execute(z.ctx, op))
}

func (z *ZmqApi) reply(envelope [][]byte, response ApiResponse) {
	payload, err := json.Marshal(response)
	if err != nil {
		z.logger.Error("marshal response", zap.Error(err))
		payload = []byte(`{"status":500,"timestamp":-1}`)
	}
	frames := make([][]byte, 0, len(envelope)+1)
	frames = append(frames, envelope...)
	frames = append(frames, payload)

	z.sendMu.Lock()
	defer z.sendMu.Unlock()
	if err := z.socket.SendMulti(zmq4.NewMsgFrom(frames...)); err != nil {
		z.logger.Warn("send failed", zap.Error(err))
	}
}

func (z *ZmqApi) Close() error {
	z.cancel()
	err := z.socket.Close()
	z.wg.Wait()
	z.logger.Info("zmq api closed")
	return err
}
