package writer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/lukehollenback/cbpro/constants"
	"github.com/lukehollenback/cbpro/exchange"
	"github.com/lukehollenback/cbpro/services"
	"github.com/rs/zerolog"
)

const (
	Name = "≪writer-service≫"

	TimeKey   = "Time"
	OpenKey   = "Open"
	HighKey   = "High"
	LowKey    = "Low"
	CloseKey  = "Close"
	VolumeKey = "Volume"

	timeFmt = "2006-01-02T15:04:05.000Z"
)

//
// Service writes candles out as CSV rows, either to a file it creates on start or to a writer
// provided by the caller.
//
type Service struct {
	mu        *sync.Mutex
	running   bool
	logger    zerolog.Logger
	path      string
	out       io.Writer
	closer    io.Closer
	csvWriter *csv.Writer
	written   int
}

var _ services.Service = (*Service)(nil)

//
// Create instantiates a writer service that will output to the file at the provided path once
// started.
//
func Create(path string, logger *zerolog.Logger) *Service {
	o := New(nil, logger)
	o.path = path

	return o
}

//
// New instantiates a writer service that outputs to the provided writer.
//
func New(out io.Writer, logger *zerolog.Logger) *Service {
	l := zerolog.Nop()
	if logger != nil {
		l = *logger
	}

	return &Service{
		mu:     &sync.Mutex{},
		logger: l.With().Str(constants.ComponentKey, Name).Logger(),
		out:    out,
	}
}

//
// Start implements the Service interface's described method. The header row is written right away.
//
func (o *Service) Start() (<-chan bool, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.running {
		return nil, services.ErrAlreadyStarted
	}

	//
	// Create the output CSV file if we were asked to.
	//
	if o.path != "" {
		file, err := os.Create(o.path)
		if err != nil {
			return nil, fmt.Errorf("failed to create output file: %w", err)
		}

		o.out = file
		o.closer = file

		o.logger.Info().Str("path", o.path).Msg("Outputting CSV.")
	}

	if o.out == nil {
		return nil, fmt.Errorf("no output has been configured")
	}

	//
	// Create the CSV writer and use it to write out the header row.
	//
	o.csvWriter = csv.NewWriter(o.out)
	o.written = 0

	if err := o.csvWriter.Write([]string{TimeKey, OpenKey, HighKey, LowKey, CloseKey, VolumeKey}); err != nil {
		return nil, err
	}

	o.running = true

	chStarted := make(chan bool, 1)
	chStarted <- true

	return chStarted, nil
}

//
// Stop implements the Service interface's described method. Buffered rows are flushed and the output
// file (if the service created one) is closed.
//
func (o *Service) Stop() (<-chan bool, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.running {
		return nil, services.ErrNotStarted
	}

	o.running = false

	o.csvWriter.Flush()
	err := o.csvWriter.Error()

	if o.closer != nil {
		if cerr := o.closer.Close(); cerr != nil && err == nil {
			err = cerr
		}

		o.closer = nil
	}

	o.logger.Info().Int("rows", o.written).Msg("Stopped.")

	chStopped := make(chan bool, 1)
	chStopped <- true

	return chStopped, err
}

//
// Write outputs the provided candles as CSV rows.
//
func (o *Service) Write(candles ...exchange.Candle) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.running {
		return services.ErrNotStarted
	}

	for _, c := range candles {
		row := []string{
			c.StartTime().UTC().Format(timeFmt),
			c.Open().String(),
			c.High().String(),
			c.Low().String(),
			c.Close().String(),
			c.Volume().String(),
		}

		if err := o.csvWriter.Write(row); err != nil {
			return err
		}

		o.written++
	}

	//
	// NOTE ~> Flush after every batch so that long running exports can be tailed.
	//
	o.csvWriter.Flush()

	return o.csvWriter.Error()
}
