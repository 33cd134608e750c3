package api

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Amount is a money value the backend sends either as a JSON number or as a
// numeric string.
type Amount float64

func (a *Amount) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" || s == `""` {
		*a = 0
		return nil
	}
	s = strings.Trim(s, `"`)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", s, err)
	}
	*a = Amount(v)
	return nil
}

// Float returns the amount as a float64.
func (a Amount) Float() float64 { return float64(a) }

// ─── Router inventory ───────────────────────────────────────────────────────

// ConnectParams is the body of POST /router/connect.
type ConnectParams struct {
	Name           string `json:"name"`
	Host           string `json:"host"`
	User           string `json:"user"`
	Password       string `json:"password"`
	HotspotName    string `json:"hotspotName"`
	DNSName        string `json:"dnsName"`
	Currency       string `json:"currency"`
	SessionTimeout string `json:"sessionTimeout"`
	LiveReport     bool   `json:"liveReport"`
}

// Router is one entry of the backend's router inventory.
type Router struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Username       string `json:"username"`
	Password       string `json:"password"`
	Host           string `json:"host"`
	HotspotName    string `json:"hotspot_name"`
	DNSName        string `json:"dns_name"`
	Currency       string `json:"currency"`
	SessionTimeout string `json:"session_timeout"`
	LiveReport     bool   `json:"live_report"`
	CreatedAt      string `json:"created_at,omitempty"`
	LastConnected  string `json:"last_connected,omitempty"`
}

// RouterUpdate is the body of PUT /routers/:id.
type RouterUpdate struct {
	Name           string `json:"name"`
	Host           string `json:"host"`
	Username       string `json:"username"`
	Password       string `json:"password"`
	HotspotName    string `json:"hotspot_name"`
	DNSName        string `json:"dns_name"`
	Currency       string `json:"currency"`
	SessionTimeout string `json:"session_timeout"`
	LiveReport     bool   `json:"live_report"`
}

// UpdateFromRouter seeds an update payload with the router's current values.
func UpdateFromRouter(r *Router) RouterUpdate {
	return RouterUpdate{
		Name:           r.Name,
		Host:           r.Host,
		Username:       r.Username,
		Password:       r.Password,
		HotspotName:    r.HotspotName,
		DNSName:        r.DNSName,
		Currency:       r.Currency,
		SessionTimeout: r.SessionTimeout,
		LiveReport:     r.LiveReport,
	}
}

// ─── Telemetry ──────────────────────────────────────────────────────────────

// ActiveUser is a live hotspot session.
type ActiveUser struct {
	Server     string `json:"server"`
	User       string `json:"user"`
	Address    string `json:"address"`
	MacAddress string `json:"macAddress"`
	Uptime     string `json:"uptime"`
	TimeLeft   string `json:"timeLeft"`
	BytesIn    string `json:"bytesIn"`
	BytesOut   string `json:"bytesOut"`
	Status     string `json:"status"`
	IdleTime   string `json:"idleTime"`
	Comment    string `json:"comment"`
}

// Usage describes a capacity gauge (memory, disk).
type Usage struct {
	Total          string `json:"total"`
	Used           string `json:"used"`
	Free           string `json:"free"`
	UsedPercentage string `json:"usedPercentage"`
}

// RouterStatus is the payload of GET /router/:id/status.
type RouterStatus struct {
	ActiveUsers struct {
		Total int          `json:"total"`
		Users []ActiveUser `json:"users"`
	} `json:"activeUsers"`
	Resources struct {
		CPU struct {
			LoadPercentage string `json:"loadPercentage"`
			FrequencyMHz   string `json:"frequencyMHz"`
			Cores          int    `json:"cores"`
			Model          string `json:"model"`
		} `json:"cpu"`
		Memory    Usage  `json:"memory"`
		Disk      Usage  `json:"disk"`
		Uptime    string `json:"uptime"`
		Version   string `json:"version"`
		BoardName string `json:"boardName"`
	} `json:"resources"`
}

// SystemInfo is the payload of GET /router/:id/system-info.
type SystemInfo struct {
	Identity     string `json:"identity"`
	Model        string `json:"model"`
	SerialNumber string `json:"serialNumber"`
	RouterOS     struct {
		Version         string `json:"version"`
		BuildTime       string `json:"buildTime"`
		FactorySoftware string `json:"factory_software"`
		UpdateChannel   string `json:"updateChannel"`
		CurrentFirmware string `json:"currentFirmware"`
	} `json:"routerOS"`
	Uptime       string `json:"uptime"`
	Architecture string `json:"architecture"`
	CPU          struct {
		Model     string `json:"model"`
		Count     string `json:"count"`
		Frequency string `json:"frequency"`
		Threads   string `json:"threads"`
	} `json:"cpu"`
	Firmware string `json:"firmware"`
	Health   struct {
		Voltage              string `json:"voltage"`
		Temperature          string `json:"temperature"`
		ProcessorTemperature string `json:"processorTemperature"`
		FanSpeed             string `json:"fanSpeed"`
	} `json:"health"`
	License struct {
		Level    string `json:"level"`
		Deadline string `json:"deadline"`
	} `json:"license"`
}

// LogEntry is one router system log line.
type LogEntry struct {
	Time        string `json:"time"`
	Timestamp   string `json:"timestamp"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Details     struct {
		Host   string `json:"host"`
		User   string `json:"user"`
		Router string `json:"router"`
	} `json:"details"`
}

// SystemLogs is the payload of GET /router/:id/logs.
type SystemLogs struct {
	Total    int        `json:"total"`
	Returned int        `json:"returned"`
	Logs     []LogEntry `json:"logs"`
}

// HotspotLog is one hotspot authentication log line.
type HotspotLog struct {
	Time    string `json:"time"`
	Date    string `json:"date"`
	User    string `json:"user"`
	IP      string `json:"ip"`
	MAC     string `json:"mac"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// HotspotLogs is the payload of GET /router/:id/hotspot-logs.
type HotspotLogs struct {
	Total int          `json:"total"`
	Logs  []HotspotLog `json:"logs"`
}

// Rate is one direction of an interface traffic sample.
type Rate struct {
	BPS       float64 `json:"bps"`
	Formatted string  `json:"formatted"`
}

// InterfaceTraffic is one interface sample of GET /router/:id/simple-traffic.
type InterfaceTraffic struct {
	Interface string `json:"interface"`
	Type      string `json:"type"`
	Running   bool   `json:"running"`
	TX        Rate   `json:"tx"`
	RX        Rate   `json:"rx"`
	Timestamp string `json:"timestamp"`
	Time      string `json:"time"`
}

// ─── Hotspot ────────────────────────────────────────────────────────────────

// HotspotUser is a hotspot user record as returned by hotspot-users-structured.
type HotspotUser struct {
	Server          string `json:"Server"`
	Name            string `json:"Name"`
	Password        string `json:"Password"`
	MacAddress      string `json:"MacAddress"`
	Profile         string `json:"Profile"`
	TimeLimit       string `json:"TimeLimit"`
	DataLimit       string `json:"DataLimit"`
	Comment         string `json:"Comment"`
	LimitUpTime     string `json:"LimitUpTime"`
	LimitBytesTotal string `json:"LimitBytesTotal"`
	Uptime          string `json:"Uptime"`
	BytesIn         string `json:"BytesIn"`
	BytesOut        string `json:"BytesOut"`
}

// UserPayload is the body of POST/PUT hotspot-users. Name is only sent on
// create and Password is omitted when blank so the server keeps its value.
type UserPayload struct {
	Server     string `json:"server"`
	Name       string `json:"name,omitempty"`
	Password   string `json:"password,omitempty"`
	MacAddress string `json:"macAddress"`
	Profile    string `json:"profile"`
	TimeLimit  string `json:"timeLimit"`
	DataLimit  string `json:"dataLimit"`
	Comment    string `json:"comment"`
}

// HotspotProfile is a user profile with its pricing.
type HotspotProfile struct {
	Name         string `json:"name"`
	AddressPool  string `json:"address_pool"`
	SharedUsers  int    `json:"shared_users"`
	RateLimit    string `json:"rate_limit"`
	ParentQueue  string `json:"parent_queue"`
	ExpireMode   string `json:"expire_mode"`
	Validity     string `json:"validity"`
	Price        Amount `json:"price"`
	SellingPrice Amount `json:"selling_price"`
	UserLock     string `json:"user_lock"`
	ServerLock   string `json:"server_lock"`
}

// ProfilePayload is the body of POST/PUT hotspot-profiles.
type ProfilePayload struct {
	Name         string `json:"name"`
	AddressPool  string `json:"addressPool"`
	SharedUsers  int    `json:"sharedUsers"`
	RateLimit    string `json:"rateLimit"`
	ParentQueue  string `json:"parentQueue"`
	ExpiredMode  string `json:"expiredMode"`
	Validity     string `json:"validity"`
	Price        string `json:"price"`
	SellingPrice string `json:"selling_price"`
	LockUser     string `json:"lockUser"`
	LockServer   string `json:"lockServer"`
}

// HotspotServer is a hotspot server instance on the router.
type HotspotServer struct {
	Name             string `json:"name"`
	Interface        string `json:"interface"`
	Profile          string `json:"profile"`
	Addresses        string `json:"addresses"`
	Disabled         bool   `json:"disabled"`
	InvalidUsername  string `json:"invalidUsername"`
	AddressPool      string `json:"addressPool"`
	IPOfDNSName      string `json:"ipOfDnsName"`
	HTMLDirectory    string `json:"htmlDirectory"`
	HTMLSubdir       string `json:"htmlSubdir"`
	MacFormat        string `json:"macFormat"`
	MacCookieTimeout string `json:"macCookieTimeout"`
	CookieLifetime   string `json:"cookieLifetime"`
}

// HotspotHost is a device seen by the hotspot.
type HotspotHost struct {
	MacAddress       string `json:"macAddress"`
	Address          string `json:"address"`
	ToAddress        string `json:"toAddress"`
	Server           string `json:"server"`
	RxRate           string `json:"rxRate"`
	TxRate           string `json:"txRate"`
	KeepaliveTimeout string `json:"keepaliveTimeout"`
	BytesIn          string `json:"bytesIn"`
	BytesOut         string `json:"bytesOut"`
	Comment          string `json:"comment"`
}

// IPPool is an address pool usable by profiles.
type IPPool struct {
	Name     string `json:"name"`
	Ranges   string `json:"ranges"`
	NextPool string `json:"nextPool"`
}

// ─── Vouchers ───────────────────────────────────────────────────────────────

// VoucherRequest is the body of POST hotspot-vouchers.
type VoucherRequest struct {
	Count          int    `json:"count"`
	Profile        string `json:"profile"`
	Server         string `json:"server"`
	TimeLimit      string `json:"timeLimit"`
	DataLimit      string `json:"dataLimit"`
	NameLength     int    `json:"nameLength"`
	PasswordLength int    `json:"passwordLength"`
	Characters     string `json:"characters"`
	Comment        string `json:"comment"`
	PrefixUsername string `json:"prefixUsername"`
	UserMode       string `json:"userMode"`
}

// DefaultVoucherRequest returns the defaults offered by the generator form.
func DefaultVoucherRequest() VoucherRequest {
	return VoucherRequest{
		Count:          1,
		Server:         "all",
		NameLength:     6,
		PasswordLength: 6,
		Characters:     "uppercase_numbers",
		UserMode:       "same",
	}
}

// BatchInfo is optional batch metadata attached to each generated voucher.
type BatchInfo struct {
	TimeLimit string `json:"timeLimit,omitempty"`
	DataLimit string `json:"dataLimit,omitempty"`
	Profile   string `json:"profile,omitempty"`
	Price     string `json:"price,omitempty"`
}

// Voucher is one generated credential pair.
type Voucher struct {
	Username  string     `json:"username"`
	Password  string     `json:"password"`
	Profile   string     `json:"profile"`
	BatchInfo *BatchInfo `json:"batchInfo,omitempty"`
}

// VoucherBatch is the result of a generation request.
type VoucherBatch struct {
	Vouchers []Voucher `json:"vouchers"`
	Price    string    `json:"price"`
}

// ─── Report ─────────────────────────────────────────────────────────────────

// Transaction is one sold voucher as seen by the revenue report.
type Transaction struct {
	VoucherName            string  `json:"voucherName"`
	Profile                string  `json:"profile"`
	BatchName              string  `json:"batchName"`
	FirstLoginDate         string  `json:"firstLoginDate"`
	FirstLoginTime         string  `json:"firstLoginTime"`
	LastLoginDate          string  `json:"lastLoginDate"`
	LastLoginTime          string  `json:"lastLoginTime"`
	IPAddress              string  `json:"ipAddress"`
	MacAddress             string  `json:"macAddress"`
	Price                  string  `json:"price"`
	RawPrice               float64 `json:"rawPrice"`
	Comment                string  `json:"comment"`
	LimitUptime            string  `json:"limitUptime"`
	LoginCount             int     `json:"loginCount"`
	UsageDurationSeconds   int64   `json:"usageDurationSeconds"`
	UsageDurationFormatted string  `json:"usageDurationFormatted"`
}

// DailyRevenue is one bar of the daily revenue chart.
type DailyRevenue struct {
	Date    string  `json:"date"`
	Revenue float64 `json:"revenue"`
}

// MonthlyRevenue is one bar of the monthly revenue chart.
type MonthlyRevenue struct {
	Month   string  `json:"month"`
	Revenue float64 `json:"revenue"`
}

// Report is the payload of GET /router/:id/voucher-transactions.
type Report struct {
	Currency                string  `json:"currency"`
	Total                   int     `json:"total"`
	TotalRevenue            float64 `json:"totalRevenue"`
	TodayRevenue            float64 `json:"todayRevenue"`
	ThisMonthRevenue        float64 `json:"thisMonthRevenue"`
	AverageRevenue          float64 `json:"averageRevenue"`
	AverageLoginsPerVoucher float64 `json:"averageLoginsPerVoucher"`
	DateRange               struct {
		Start        string `json:"start"`
		End          string `json:"end"`
		CurrentMonth string `json:"currentMonth"`
	} `json:"dateRange"`
	RevenueStats struct {
		Daily   []DailyRevenue   `json:"daily"`
		Monthly []MonthlyRevenue `json:"monthly"`
	} `json:"revenueStats"`
	Transactions []Transaction `json:"transactions"`
}

// envelope is the common response wrapper of every backend endpoint.
type envelope struct {
	Success      bool            `json:"success"`
	Message      string          `json:"message,omitempty"`
	Data         json.RawMessage `json:"data,omitempty"`
	ConnectionID string          `json:"connectionId,omitempty"`
	Routers      json.RawMessage `json:"routers,omitempty"`
}
