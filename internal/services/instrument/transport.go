package instrument

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/sprigga/WebPDTool-sub005/internal/domain/models"
	"github.com/sprigga/WebPDTool-sub005/internal/services/protocol"
	apperrors "github.com/sprigga/WebPDTool-sub005/pkg/errors"
	"golang.org/x/crypto/ssh"
)

// Transport - синхронный строковый канал до инструмента. Все блокирующие
// операции принимают контекст: отмена прерывает незавершенный ввод-вывод.
type Transport interface {
	Send(ctx context.Context, command string) error
	SendRecv(ctx context.Context, command string) (string, error)
	Close() error
}

// TransportOpener открывает транспорт по дескриптору. Подменяется в тестах.
type TransportOpener func(ctx context.Context, desc *models.TransportDescriptor) (Transport, error)

// OpenTransport - боевой TransportOpener для tcp, serial и ssh.
func OpenTransport(ctx context.Context, desc *models.TransportDescriptor) (Transport, error) {
	switch desc.Type {
	case models.TransportTCP:
		return openTCP(ctx, desc)
	case models.TransportSerial:
		return openSerialTransport(desc)
	case models.TransportSSH:
		return openSSH(desc)
	default:
		return nil, fmt.Errorf("%w: unsupported transport type '%s'", apperrors.ErrInstrumentConnection, desc.Type)
	}
}

func descTimeout(desc *models.TransportDescriptor) time.Duration {
	if desc.TimeoutMs > 0 {
		return time.Duration(desc.TimeoutMs) * time.Millisecond
	}
	return 5 * time.Second
}

// --- TCP ---

type tcpTransport struct {
	conn    net.Conn
	reader  *bufio.Reader
	timeout time.Duration
}

func openTCP(ctx context.Context, desc *models.TransportDescriptor) (Transport, error) {
	dialer := net.Dialer{Timeout: descTimeout(desc)}
	conn, err := dialer.DialContext(ctx, "tcp", desc.Address)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", apperrors.ErrInstrumentConnection, desc.Address, err)
	}
	return &tcpTransport{
		conn:    conn,
		reader:  bufio.NewReader(conn),
		timeout: descTimeout(desc),
	}, nil
}

func (t *tcpTransport) deadline(ctx context.Context) time.Time {
	if d, ok := ctx.Deadline(); ok {
		return d
	}
	return time.Now().Add(t.timeout)
}

func (t *tcpTransport) Send(ctx context.Context, command string) error {
	_ = t.conn.SetWriteDeadline(t.deadline(ctx))
	if _, err := t.conn.Write([]byte(command + "\n")); err != nil {
		return fmt.Errorf("%w: write: %v", apperrors.ErrInstrumentConnection, err)
	}
	return nil
}

func (t *tcpTransport) SendRecv(ctx context.Context, command string) (string, error) {
	if err := t.Send(ctx, command); err != nil {
		return "", err
	}
	_ = t.conn.SetReadDeadline(t.deadline(ctx))
	line, err := t.reader.ReadString('\n')
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return "", fmt.Errorf("%w: no response to '%s'", apperrors.ErrInstrumentTimeout, command)
		}
		return "", fmt.Errorf("%w: read: %v", apperrors.ErrInstrumentCommand, err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (t *tcpTransport) Close() error {
	return t.conn.Close()
}

// --- Serial ---

type serialTransport struct {
	port    protocol.Port
	timeout time.Duration
}

func openSerialTransport(desc *models.TransportDescriptor) (Transport, error) {
	baud := desc.Baud
	if baud == 0 {
		baud = 9600
	}
	port, err := protocol.OpenSerialPort(desc.Address, baud)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", apperrors.ErrInstrumentConnection, desc.Address, err)
	}
	// Короткий таймаут чтения: блокирующий порт становится опрашиваемым
	// и отмена контекста может прервать чтение.
	_ = port.SetReadTimeout(50 * time.Millisecond)
	return &serialTransport{port: port, timeout: descTimeout(desc)}, nil
}

func (t *serialTransport) Send(ctx context.Context, command string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := t.port.Write([]byte(command + "\n")); err != nil {
		return fmt.Errorf("%w: write: %v", apperrors.ErrInstrumentConnection, err)
	}
	return nil
}

func (t *serialTransport) SendRecv(ctx context.Context, command string) (string, error) {
	if err := t.Send(ctx, command); err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	var line []byte
	buf := make([]byte, 1)
	for {
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("%w: no response to '%s'", apperrors.ErrInstrumentTimeout, command)
		}
		n, err := t.port.Read(buf)
		if err != nil {
			return "", fmt.Errorf("%w: read: %v", apperrors.ErrInstrumentCommand, err)
		}
		if n == 0 {
			continue // Истек таймаут чтения порта, проверяем контекст
		}
		if buf[0] == '\n' {
			return strings.TrimRight(string(line), "\r"), nil
		}
		line = append(line, buf[0])
	}
}

func (t *serialTransport) Close() error {
	return t.port.Close()
}

// --- SSH (удаленный shell) ---

type sshTransport struct {
	client  *ssh.Client
	timeout time.Duration
}

func openSSH(desc *models.TransportDescriptor) (Transport, error) {
	cfg := &ssh.ClientConfig{
		User: desc.User,
		Auth: []ssh.AuthMethod{
			ssh.Password(desc.Password),
		},
		// Лабораторные приборы; ключи хостов не администрируются.
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         descTimeout(desc),
	}
	client, err := ssh.Dial("tcp", desc.Address, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: ssh dial %s: %v", apperrors.ErrInstrumentConnection, desc.Address, err)
	}
	return &sshTransport{client: client, timeout: descTimeout(desc)}, nil
}

// run выполняет одну команду в отдельной ssh-сессии, прерываясь по контексту.
func (t *sshTransport) run(ctx context.Context, command string, capture bool) (string, error) {
	session, err := t.client.NewSession()
	if err != nil {
		return "", fmt.Errorf("%w: ssh session: %v", apperrors.ErrInstrumentConnection, err)
	}
	defer session.Close()

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	type result struct {
		out []byte
		err error
	}
	done := make(chan result, 1)
	go func() {
		if capture {
			out, err := session.Output(command)
			done <- result{out: out, err: err}
			return
		}
		done <- result{err: session.Run(command)}
	}()

	select {
	case <-ctx.Done():
		_ = session.Signal(ssh.SIGKILL)
		return "", fmt.Errorf("%w: ssh command '%s'", apperrors.ErrInstrumentTimeout, command)
	case res := <-done:
		if res.err != nil {
			return "", fmt.Errorf("%w: ssh command '%s': %v", apperrors.ErrInstrumentCommand, command, res.err)
		}
		return strings.TrimSpace(string(res.out)), nil
	}
}

func (t *sshTransport) Send(ctx context.Context, command string) error {
	_, err := t.run(ctx, command, false)
	return err
}

func (t *sshTransport) SendRecv(ctx context.Context, command string) (string, error) {
	return t.run(ctx, command, true)
}

func (t *sshTransport) Close() error {
	return t.client.Close()
}
