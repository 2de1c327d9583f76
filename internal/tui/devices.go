// SPDX-License-Identifier: MIT
package tui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"audioviz/internal/audio"
)

// ScreenType defines which screen is currently active.
type ScreenType int

const (
	ListScreen ScreenType = iota
	ConfigScreen
)

// Selection is the device and rate chosen in the picker.
type Selection struct {
	DeviceID   int
	SampleRate float64
}

// Flags returns the command line flags that select s.
func (s Selection) Flags() string {
	return fmt.Sprintf("--device %d --samples-per-second %.0f", s.DeviceID, s.SampleRate)
}

var standardSampleRates = []float64{16000, 22050, 24000, 44100, 48000, 88200, 96000}

var (
	keyQuit  = key.NewBinding(key.WithKeys("q", "ctrl+c"))
	keyUp    = key.NewBinding(key.WithKeys("up", "k"))
	keyDown  = key.NewBinding(key.WithKeys("down", "j"))
	keyEnter = key.NewBinding(key.WithKeys("enter"))
	keyBack  = key.NewBinding(key.WithKeys("esc"))
)

// DeviceListModel is an interactive input-device picker. Enter on the list
// opens the sample rate screen; Enter there confirms the selection.
type DeviceListModel struct {
	fetch         func() ([]audio.DeviceInfo, error)
	devices       []audio.DeviceInfo
	selectedIndex int
	viewport      viewport.Model
	ready         bool
	err           error
	activeScreen  ScreenType

	availableSampleRates []float64
	sampleRateIndex      int

	selection *Selection
}

type devicesMsg struct {
	devices []audio.DeviceInfo
}

type errMsg struct {
	err error
}

// NewDeviceListModel creates a picker listing the input devices returned
// by fetch.
func NewDeviceListModel(fetch func() ([]audio.DeviceInfo, error)) DeviceListModel {
	return DeviceListModel{fetch: fetch, activeScreen: ListScreen}
}

// Init fetches the devices.
func (m DeviceListModel) Init() tea.Cmd {
	return func() tea.Msg {
		devices, err := m.fetch()
		if err != nil {
			return errMsg{err}
		}
		inputs := slices.DeleteFunc(devices, func(d audio.DeviceInfo) bool {
			return d.MaxInputChannels < 1
		})
		return devicesMsg{inputs}
	}
}

// Update handles input and updates the model.
func (m DeviceListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-4)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 4
		}
		m.refresh()

	case devicesMsg:
		m.devices = msg.devices
		for i, d := range m.devices {
			if d.IsDefaultInput {
				m.selectedIndex = i
			}
		}
		m.refresh()

	case errMsg:
		m.err = msg.err
		return m, tea.Quit

	case tea.KeyMsg:
		if key.Matches(msg, keyQuit) {
			return m, tea.Quit
		}

		switch m.activeScreen {
		case ListScreen:
			switch {
			case key.Matches(msg, keyUp):
				if m.selectedIndex > 0 {
					m.selectedIndex--
				}
			case key.Matches(msg, keyDown):
				if m.selectedIndex < len(m.devices)-1 {
					m.selectedIndex++
				}
			case key.Matches(msg, keyEnter):
				if len(m.devices) > 0 {
					m.openConfig()
				}
			}

		case ConfigScreen:
			switch {
			case key.Matches(msg, keyBack):
				m.activeScreen = ListScreen
			case key.Matches(msg, keyUp):
				if m.sampleRateIndex > 0 {
					m.sampleRateIndex--
				}
			case key.Matches(msg, keyDown):
				if m.sampleRateIndex < len(m.availableSampleRates)-1 {
					m.sampleRateIndex++
				}
			case key.Matches(msg, keyEnter):
				m.selection = &Selection{
					DeviceID:   m.devices[m.selectedIndex].ID,
					SampleRate: m.availableSampleRates[m.sampleRateIndex],
				}
				return m, tea.Quit
			}
		}
		m.refresh()
	}

	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// openConfig switches to the sample rate screen with the device default
// preselected.
func (m *DeviceListModel) openConfig() {
	m.activeScreen = ConfigScreen

	def := m.devices[m.selectedIndex].DefaultSampleRate
	m.availableSampleRates = slices.Clone(standardSampleRates)
	if !slices.Contains(m.availableSampleRates, def) && def > 0 {
		m.availableSampleRates = append(m.availableSampleRates, def)
		slices.Sort(m.availableSampleRates)
	}
	m.sampleRateIndex = max(0, slices.Index(m.availableSampleRates, def))
}

func (m *DeviceListModel) refresh() {
	if !m.ready {
		return
	}
	if m.activeScreen == ConfigScreen {
		m.viewport.SetContent(m.renderDeviceConfig())
	} else {
		m.viewport.SetContent(m.renderDevices())
	}
}

// Selection returns the confirmed choice, or false if the picker was quit.
func (m DeviceListModel) Selection() (Selection, bool) {
	if m.selection == nil {
		return Selection{}, false
	}
	return *m.selection, true
}

// Err returns the device fetch error, if any.
func (m DeviceListModel) Err() error { return m.err }

// View renders the UI.
func (m DeviceListModel) View() string {
	if m.err != nil {
		return fmt.Sprintf("Error: %v\n", m.err)
	}
	if !m.ready {
		return "Initializing..."
	}

	var title, help string
	if m.activeScreen == ListScreen {
		title = titleStyle.Render("Input Devices")
		help = infoStyle.Render("↑/↓: Navigate • Enter: Configure • q: Quit")
	} else {
		title = titleStyle.Render("Device Configuration")
		help = infoStyle.Render("↑/↓: Change Rate • Enter: Select • Esc: Back • q: Quit")
	}

	return fmt.Sprintf("%s\n\n%s\n\n%s", title, m.viewport.View(), help)
}

func (m DeviceListModel) renderDevices() string {
	if len(m.devices) == 0 {
		return "No input devices found."
	}

	var sb strings.Builder
	for i, device := range m.devices {
		marker := " "
		if device.IsDefaultInput {
			marker = "*"
		}
		info := fmt.Sprintf("%s[%d] %s (%s)\n", marker, device.ID, device.Name, device.Kind())
		info += fmt.Sprintf("    Input channels: %d, default rate: %.0f Hz\n",
			device.MaxInputChannels, device.DefaultSampleRate)

		if i == m.selectedIndex {
			info = highlightStyle.Render(info)
		}
		sb.WriteString(info)
		sb.WriteString("\n")
	}
	return sb.String()
}

func (m DeviceListModel) renderDeviceConfig() string {
	var sb strings.Builder
	device := m.devices[m.selectedIndex]

	fmt.Fprintf(&sb, "Configure Device: %s\n\n", device.Name)
	sb.WriteString("Sample Rate:\n")

	for i, rate := range m.availableSampleRates {
		cursor := " "
		if i == m.sampleRateIndex {
			cursor = "▶"
		}
		line := fmt.Sprintf("  %s %.0f Hz\n", cursor, rate)
		if i == m.sampleRateIndex {
			line = highlightStyle.Render(line)
		}
		sb.WriteString(line)
	}
	return sb.String()
}

// RunDevicePicker runs the picker full screen and returns the selection.
func RunDevicePicker(fetch func() ([]audio.DeviceInfo, error)) (Selection, bool, error) {
	final, err := tea.NewProgram(NewDeviceListModel(fetch), tea.WithAltScreen()).Run()
	if err != nil {
		return Selection{}, false, err
	}
	m := final.(DeviceListModel)
	if m.Err() != nil {
		return Selection{}, false, m.Err()
	}
	sel, ok := m.Selection()
	return sel, ok, nil
}

// RenderDeviceTable formats devices as a static table.
func RenderDeviceTable(devices []audio.DeviceInfo) string {
	if len(devices) == 0 {
		return "No audio devices found.\n"
	}

	headers := []string{"ID", "NAME", "TYPE", "IN", "OUT", "RATE", "LATENCY", "HOST API"}
	rows := make([][]string, 0, len(devices))
	for _, d := range devices {
		name := d.Name
		if d.IsDefaultInput {
			name += " *"
		}
		rows = append(rows, []string{
			fmt.Sprint(d.ID),
			name,
			d.Kind(),
			fmt.Sprint(d.MaxInputChannels),
			fmt.Sprint(d.MaxOutputChannels),
			fmt.Sprintf("%.0f Hz", d.DefaultSampleRate),
			fmt.Sprintf("%.1f-%.1f ms", d.LowInputLatency.Seconds()*1000, d.HighInputLatency.Seconds()*1000),
			d.HostAPI,
		})
	}

	columns := make([]string, len(headers))
	for c, h := range headers {
		cells := []string{headerCellStyle.Render(h)}
		for _, r := range rows {
			cells = append(cells, cellStyle.Render(r[c]))
		}
		columns[c] = lipgloss.JoinVertical(lipgloss.Left, cells...)
	}

	table := lipgloss.JoinHorizontal(lipgloss.Top, columns...)
	return titleStyle.Render("Audio Devices") + "\n\n" + table + "\n\n" +
		infoStyle.Render("* default input") + "\n"
}
