package models

// HardwareAsset is a row of hw_asset.
type HardwareAsset struct {
	ID          int64   `db:"id" json:"id"`
	AssetNum    string  `db:"assetnum" json:"assetnum"`
	Brand       string  `db:"brand" json:"brand"`
	Model       string  `db:"model" json:"model"`
	User        string  `db:"user" json:"user"`
	Location    string  `db:"location" json:"location"`
	Spec        string  `db:"spec" json:"spec"`
	SN          string  `db:"sn" json:"sn"`
	Software    string  `db:"software" json:"software"`
	Price       Decimal `db:"price" json:"price"`
	ReceiveDate Date    `db:"receivedate" json:"receivedate"`
	InvoiceNum  string  `db:"invoicenum" json:"invoicenum"`
	PONum       string  `db:"ponum" json:"ponum"`
}

// HardwareAccessory is a row of hw_accessories.
type HardwareAccessory struct {
	ID           int64   `db:"id" json:"id"`
	Type         string  `db:"type" json:"type"`
	Detail       string  `db:"detail" json:"detail"`
	SN           string  `db:"sn" json:"sn"`
	AssetInstall string  `db:"assetinstall" json:"assetinstall"`
	Location     string  `db:"location" json:"location"`
	Price        Decimal `db:"price" json:"price"`
	ReceiveDate  Date    `db:"receivedate" json:"receivedate"`
	InvoiceNum   string  `db:"invoicenum" json:"invoicenum"`
	PONum        string  `db:"ponum" json:"ponum"`
}

// SoftwareAsset is a row of sw_asset.
type SoftwareAsset struct {
	ID           int64   `db:"id" json:"id"`
	AssetNum     string  `db:"assetnum" json:"assetnum"`
	Name         string  `db:"name" json:"name"`
	SWKey        string  `db:"swkey" json:"swkey"`
	User         string  `db:"user" json:"user"`
	AssetInstall string  `db:"assetinstall" json:"assetinstall"`
	Location     string  `db:"location" json:"location"`
	Price        Decimal `db:"price" json:"price"`
	ReceiveDate  Date    `db:"receivedate" json:"receivedate"`
	InvoiceNum   string  `db:"invoicenum" json:"invoicenum"`
	PONum        string  `db:"ponum" json:"ponum"`
}

// SoftwareYearly is a row of sw_yearly, a subscription renewed every year.
type SoftwareYearly struct {
	ID           int64   `db:"id" json:"id"`
	Name         string  `db:"name" json:"name"`
	AssetInstall string  `db:"assetinstall" json:"assetinstall"`
	ExpireDate   Date    `db:"expiredate" json:"expiredate"`
	Price        Decimal `db:"price" json:"price"`
	ReceiveDate  Date    `db:"receivedate" json:"receivedate"`
	InvoiceNum   string  `db:"invoicenum" json:"invoicenum"`
	PONum        string  `db:"ponum" json:"ponum"`
}

// HardwareAmortized is a retired hardware asset.
type HardwareAmortized struct {
	HardwareAsset
	AmortizedDate Timestamp `db:"amortizeddate" json:"amortizeddate"`
}
